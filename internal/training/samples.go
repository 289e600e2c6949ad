// Package training owns the labeled training corpus, the retraining
// pipeline and its audit trail. The corpus and audit log are whole
// YAML documents, read and rewritten on every append; concurrent
// writers from multiple processes are not safe under this contract and
// must be serialized by the caller.
package training

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ekervik/kontoklar/internal/model"
)

// SampleLog is the append-only training corpus.
type SampleLog struct {
	path string
}

// samplesFile is the on-disk YAML document.
type samplesFile struct {
	TrainingData []model.TrainingSample `yaml:"training_data"`
}

// NewSampleLog returns a log backed by the YAML document at path.
func NewSampleLog(path string) *SampleLog {
	return &SampleLog{path: path}
}

// All returns every sample in append order. A missing file is an empty
// corpus, not an error.
func (l *SampleLog) All() ([]model.TrainingSample, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read training data: %w", err)
	}

	var doc samplesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse training data: %w", err)
	}
	return doc.TrainingData, nil
}

// Count returns the corpus size.
func (l *SampleLog) Count() (int, error) {
	samples, err := l.All()
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

// Append adds one sample and rewrites the document.
func (l *SampleLog) Append(sample model.TrainingSample) error {
	samples, err := l.All()
	if err != nil {
		return err
	}
	samples = append(samples, sample)

	return writeYAML(l.path, samplesFile{TrainingData: samples})
}

// writeYAML marshals doc and rewrites path whole, creating parent
// directories as needed.
func writeYAML(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
