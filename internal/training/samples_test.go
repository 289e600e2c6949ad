package training

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/model"
)

func TestSampleLog_MissingFileIsEmptyCorpus(t *testing.T) {
	log := NewSampleLog(filepath.Join(t.TempDir(), "training_data.yaml"))

	samples, err := log.All()
	require.NoError(t, err)
	assert.Empty(t, samples)

	count, err := log.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSampleLog_AppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training_data.yaml")
	log := NewSampleLog(path)

	first := model.TrainingSample{
		AddedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Description: "ICA SUPERMARKET STOCKHOLM",
		Category:    "Mat",
		Subcategory: "Livsmedel",
		Manual:      true,
	}
	second := model.TrainingSample{
		AddedAt:     time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC),
		Description: "SHELL TANKNING 7-ELEVEN",
		Category:    "Transport",
		Subcategory: "Bränsle",
		Manual:      true,
	}

	require.NoError(t, log.Append(first))
	require.NoError(t, log.Append(second))

	samples, err := log.All()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "ICA SUPERMARKET STOCKHOLM", samples[0].Description)
	assert.Equal(t, "Mat", samples[0].Category)
	assert.Equal(t, "Livsmedel", samples[0].Subcategory)
	assert.True(t, samples[0].Manual)
	assert.Equal(t, "SHELL TANKNING 7-ELEVEN", samples[1].Description)

	count, err := log.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSampleLog_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "training_data.yaml")
	log := NewSampleLog(path)

	require.NoError(t, log.Append(model.TrainingSample{Description: "SPOTIFY AB"}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSampleLog_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training_data.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training_data: {not: [a, list"), 0o644))

	_, err := NewSampleLog(path).All()
	assert.Error(t, err)
}

func TestAuditLog_AppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retraining_audit.yaml")
	log := NewAuditLog(path)

	runs, err := log.All()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, log.Append(model.RetrainReport{
		Timestamp:   time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC),
		ModelType:   "naive-bayes-tfidf",
		Message:     "Insufficient training data: 2 samples (need at least 4)",
		SamplesUsed: 0,
		Success:     false,
	}))
	require.NoError(t, log.Append(model.RetrainReport{
		Timestamp:   time.Date(2025, 3, 6, 8, 0, 0, 0, time.UTC),
		ModelType:   "naive-bayes-tfidf",
		Message:     "Model trained successfully with 8 samples across 3 categories.",
		SamplesUsed: 8,
		Accuracy:    1.0,
		Success:     true,
	}))

	runs, err = log.All()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.False(t, runs[0].Success)
	assert.True(t, runs[1].Success)
	assert.Equal(t, 8, runs[1].SamplesUsed)
	assert.InDelta(t, 1.0, runs[1].Accuracy, 1e-9)
}
