package bayes

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jbrukh/bayesian"

	"github.com/ekervik/kontoklar/internal/model"
)

// ModelType identifies the classifier family in retraining audit entries.
const ModelType = "naive-bayes-tfidf"

// Classifier is a trainable text classifier over composite
// "Category/Subcategory" labels. The zero value from New is untrained:
// Predict reports no result until Train succeeds or a persisted model
// is loaded.
type Classifier struct {
	trainedAt   time.Time
	cl          *bayesian.Classifier
	vocabulary  map[string]bool
	classes     []bayesian.Class
	sampleCount int
}

// Prediction is a single classification with its posterior confidence.
type Prediction struct {
	Category    string
	Subcategory string
	Confidence  float64
}

// New returns an untrained classifier.
func New() *Classifier {
	return &Classifier{}
}

// Trained reports whether the classifier can produce predictions.
func (c *Classifier) Trained() bool {
	return c.cl != nil
}

// TrainedAt returns when the current model was fitted, zero if untrained.
func (c *Classifier) TrainedAt() time.Time {
	return c.trainedAt
}

// SampleCount returns how many samples the current model was fitted on.
func (c *Classifier) SampleCount() int {
	return c.sampleCount
}

// Train fits a fresh model from the labeled samples. Failure is a
// reported result, never an error: at least two composite labels with
// minPerCategory samples each are required, and labels below that bar
// are excluded from this training call along with their samples.
func (c *Classifier) Train(samples []model.TrainingSample, minPerCategory int) model.TrainResult {
	if minPerCategory < 1 {
		minPerCategory = 1
	}

	if len(samples) < 2 {
		return model.TrainResult{
			Success: false,
			Message: fmt.Sprintf("Need at least 2 training samples. Currently have %d.", len(samples)),
		}
	}

	labelCounts := make(map[string]int)
	for _, s := range samples {
		labelCounts[s.Label()]++
	}

	validLabels := make([]string, 0, len(labelCounts))
	for label, count := range labelCounts {
		if count >= minPerCategory {
			validLabels = append(validLabels, label)
		}
	}
	if len(validLabels) < 2 {
		return model.TrainResult{
			Success: false,
			Message: fmt.Sprintf("Need at least 2 categories with %d+ samples each. Currently have %d valid categories.",
				minPerCategory, len(validLabels)),
		}
	}
	// Deterministic class order for a given corpus
	sort.Strings(validLabels)

	valid := make(map[string]bool, len(validLabels))
	classes := make([]bayesian.Class, 0, len(validLabels))
	for _, label := range validLabels {
		valid[label] = true
		classes = append(classes, bayesian.Class(label))
	}

	kept := make([]model.TrainingSample, 0, len(samples))
	docs := make([][]string, 0, len(samples))
	for _, s := range samples {
		if !valid[s.Label()] {
			continue
		}
		kept = append(kept, s)
		docs = append(docs, Features(s.Description))
	}

	vocab := buildVocabulary(docs, vocabularyLimit)

	cl := bayesian.NewClassifierTfIdf(classes...)
	for i, s := range kept {
		cl.Learn(filterToVocabulary(docs[i], vocab), bayesian.Class(s.Label()))
	}
	cl.ConvertTermsFreqToTfIdf()

	c.cl = cl
	c.classes = classes
	c.vocabulary = vocab
	c.sampleCount = len(kept)
	c.trainedAt = time.Now()

	slog.Info("classifier trained",
		"samples", len(kept),
		"categories", len(validLabels),
		"vocabulary", len(vocab))

	return model.TrainResult{
		Success:     true,
		Message:     fmt.Sprintf("Model trained successfully with %d samples across %d categories.", len(kept), len(validLabels)),
		SamplesUsed: len(kept),
		Categories:  validLabels,
	}
}

// Predict classifies text and reports the model's posterior confidence
// for the chosen label. It reports no result when the classifier is
// untrained or the posterior computation underflows.
func (c *Classifier) Predict(text string) (Prediction, bool) {
	if c.cl == nil {
		return Prediction{}, false
	}

	terms := filterToVocabulary(Features(text), c.vocabulary)

	scores, idx, _, err := c.cl.SafeProbScores(terms)
	if err != nil {
		slog.Debug("posterior underflow, skipping prediction", "error", err)
		return Prediction{}, false
	}
	if idx < 0 || idx >= len(c.classes) {
		return Prediction{}, false
	}

	category, subcategory, _ := strings.Cut(string(c.classes[idx]), "/")
	return Prediction{
		Category:    category,
		Subcategory: subcategory,
		Confidence:  scores[idx],
	}, true
}
