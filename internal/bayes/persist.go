package bayes

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jbrukh/bayesian"

	"github.com/ekervik/kontoklar/internal/common"
)

// modelFile is the on-disk form of a fitted model: one gob document
// that round-trips the vocabulary and the classifier parameters.
type modelFile struct {
	TrainedAt   time.Time
	Classes     []string
	Vocabulary  []string
	Model       []byte
	SampleCount int
}

// SaveTo writes the fitted model to path, creating parent directories
// as needed. Saving an untrained classifier is an error.
func (c *Classifier) SaveTo(path string) error {
	if c.cl == nil {
		return common.ErrModelNotTrained
	}

	var inner bytes.Buffer
	if err := c.cl.WriteTo(&inner); err != nil {
		return fmt.Errorf("failed to serialize classifier: %w", err)
	}

	classes := make([]string, 0, len(c.classes))
	for _, cls := range c.classes {
		classes = append(classes, string(cls))
	}
	vocabulary := make([]string, 0, len(c.vocabulary))
	for term := range c.vocabulary {
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(modelFile{
		TrainedAt:   c.trainedAt,
		Classes:     classes,
		Vocabulary:  vocabulary,
		Model:       inner.Bytes(),
		SampleCount: c.sampleCount,
	}); err != nil {
		return fmt.Errorf("failed to encode model file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// LoadFrom reads a previously saved model. A missing file is not an
// error: it returns an untrained classifier so predictions simply
// report no result until the next training run.
func LoadFrom(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var mf modelFile
	if err := gob.NewDecoder(f).Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to decode model file: %w", err)
	}

	cl, err := bayesian.NewClassifierFromReader(bytes.NewReader(mf.Model))
	if err != nil {
		return nil, fmt.Errorf("failed to restore classifier: %w", err)
	}

	classes := make([]bayesian.Class, 0, len(mf.Classes))
	for _, cls := range mf.Classes {
		classes = append(classes, bayesian.Class(cls))
	}
	vocabulary := make(map[string]bool, len(mf.Vocabulary))
	for _, term := range mf.Vocabulary {
		vocabulary[term] = true
	}

	return &Classifier{
		trainedAt:   mf.TrainedAt,
		cl:          cl,
		vocabulary:  vocabulary,
		classes:     classes,
		sampleCount: mf.SampleCount,
	}, nil
}
