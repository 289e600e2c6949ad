package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/bayes"
	"github.com/ekervik/kontoklar/internal/model"
)

// newTestPipeline builds a pipeline over fresh temp files and returns
// it together with the model path it persists to.
func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.gob")
	pipeline := NewPipeline(
		NewSampleLog(filepath.Join(dir, "training_data.yaml")),
		NewAuditLog(filepath.Join(dir, "retraining_audit.yaml")),
		bayes.New(),
		modelPath,
		2,
		10,
	)
	return pipeline, modelPath
}

func addSamples(t *testing.T, p *Pipeline, samples ...model.TrainingSample) {
	t.Helper()
	for _, s := range samples {
		require.NoError(t, p.samples.Append(s))
	}
}

func groceriesAndFuel() []model.TrainingSample {
	return []model.TrainingSample{
		{Description: "ICA SUPERMARKET STOCKHOLM", Category: "Mat", Subcategory: "Livsmedel", Manual: true},
		{Description: "COOP KONSUM SOLNA", Category: "Mat", Subcategory: "Livsmedel", Manual: true},
		{Description: "SHELL TANKNING 7-ELEVEN", Category: "Transport", Subcategory: "Bränsle", Manual: true},
		{Description: "CIRCLE K BENSIN GÖTEBORG", Category: "Transport", Subcategory: "Bränsle", Manual: true},
	}
}

func TestPipeline_RunWithTooFewSamples(t *testing.T) {
	pipeline, modelPath := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "ICA SUPERMARKET", Category: "Mat", Subcategory: "Livsmedel"},
		model.TrainingSample{Description: "SHELL TANKNING", Category: "Transport", Subcategory: "Bränsle"},
	)

	report := pipeline.Run(context.Background())

	assert.False(t, report.Success)
	assert.Equal(t, "Insufficient training data: 2 samples (need at least 4)", report.Message)
	assert.Zero(t, report.SamplesUsed)

	_, err := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err), "skipped run must not write a model file")

	runs, err := pipeline.History()
	require.NoError(t, err)
	require.Len(t, runs, 1, "skipped runs are still audited")
	assert.False(t, runs[0].Success)
}

func TestPipeline_RunTrainsAndPersists(t *testing.T) {
	pipeline, modelPath := newTestPipeline(t)
	addSamples(t, pipeline, groceriesAndFuel()...)

	report := pipeline.Run(context.Background())

	require.True(t, report.Success, "message: %s", report.Message)
	assert.Equal(t, 4, report.SamplesUsed)
	assert.InDelta(t, 1.0, report.Accuracy, 1e-9)
	assert.Equal(t, bayes.ModelType, report.ModelType)
	assert.False(t, report.Timestamp.IsZero())

	_, err := os.Stat(modelPath)
	require.NoError(t, err, "successful run persists the model")

	reloaded, err := bayes.LoadFrom(modelPath)
	require.NoError(t, err)
	prediction, ok := reloaded.Predict("ICA NÄRA HANDLA MAT")
	require.True(t, ok)
	assert.Equal(t, "Mat", prediction.Category)

	runs, err := pipeline.History()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 4, runs[0].SamplesUsed)
}

func TestPipeline_RunRecordsFailedTraining(t *testing.T) {
	pipeline, modelPath := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "ICA SUPERMARKET", Category: "Mat", Subcategory: "Livsmedel"},
		model.TrainingSample{Description: "ICA NÄRA", Category: "Mat", Subcategory: "Livsmedel"},
		model.TrainingSample{Description: "ICA KVANTUM", Category: "Mat", Subcategory: "Livsmedel"},
		model.TrainingSample{Description: "ICA MAXI", Category: "Mat", Subcategory: "Livsmedel"},
	)

	report := pipeline.Run(context.Background())

	assert.False(t, report.Success, "a single label cannot train a discriminating model")
	assert.Contains(t, report.Message, "Need at least 2 categories")

	_, err := os.Stat(modelPath)
	assert.True(t, os.IsNotExist(err))

	runs, err := pipeline.History()
	require.NoError(t, err)
	require.Len(t, runs, 1, "failed runs are still audited")
	assert.False(t, runs[0].Success)
}

func TestPipeline_RunDilutedCorpusAccuracy(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	samples := append(groceriesAndFuel(),
		model.TrainingSample{Description: "APOTEKET HJÄRTAT", Category: "Hälsa", Subcategory: "Apotek"})
	addSamples(t, pipeline, samples...)

	report := pipeline.Run(context.Background())

	require.True(t, report.Success, "message: %s", report.Message)
	assert.Equal(t, 4, report.SamplesUsed, "sparse category is excluded from training")
	assert.InDelta(t, 0.8, report.Accuracy, 1e-9, "accuracy reflects the share of the corpus actually used")
}

func TestPipeline_AddManualSample(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	before := time.Now()
	require.NoError(t, pipeline.AddManualSample("  SPOTIFY AB  ", "Nöje", "Musik"))

	samples, err := pipeline.Samples()
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "SPOTIFY AB", samples[0].Description, "description is trimmed")
	assert.Equal(t, "Nöje", samples[0].Category)
	assert.Equal(t, "Musik", samples[0].Subcategory)
	assert.True(t, samples[0].Manual)
	assert.False(t, samples[0].AddedAt.Before(before.Truncate(time.Second)))
}

func TestPipeline_AddManualSampleRejectsEmptyDescription(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	err := pipeline.AddManualSample("   ", "Mat", "Livsmedel")
	assert.Error(t, err)

	samples, err := pipeline.Samples()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestPipeline_ShouldRetrain(t *testing.T) {
	dir := t.TempDir()
	pipeline := NewPipeline(
		NewSampleLog(filepath.Join(dir, "training_data.yaml")),
		NewAuditLog(filepath.Join(dir, "retraining_audit.yaml")),
		bayes.New(),
		filepath.Join(dir, "model.gob"),
		2,
		4,
	)

	assert.False(t, pipeline.ShouldRetrain(), "empty corpus is never ready")

	addSamples(t, pipeline, groceriesAndFuel()[:3]...)
	assert.False(t, pipeline.ShouldRetrain(), "three samples are below a trigger of four")

	addSamples(t, pipeline, groceriesAndFuel()[3])
	assert.True(t, pipeline.ShouldRetrain())
}

func TestPipeline_Stats(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "ICA SUPERMARKET", Category: "Mat", Subcategory: "Livsmedel", Manual: true},
		model.TrainingSample{Description: "COOP KONSUM", Category: "Mat", Subcategory: "Livsmedel", Manual: true},
		model.TrainingSample{Description: "SHELL TANKNING", Category: "Transport", Subcategory: "Bränsle"},
	)

	stats, err := pipeline.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSamples)
	assert.Equal(t, 2, stats.ManualSamples)
	assert.Equal(t, 2, stats.Categories["Mat"])
	assert.Equal(t, 1, stats.Categories["Transport"])
	assert.Equal(t, 2, stats.MinSamplesNeeded)
	assert.False(t, stats.ReadyToTrain, "three samples are below the retraining floor")
}
