package training

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ekervik/kontoklar/internal/bayes"
	"github.com/ekervik/kontoklar/internal/model"
)

// minCorpusSize is the floor below which a retraining run is not
// attempted at all.
const minCorpusSize = 4

// Pipeline retrains the statistical classifier from the accumulated
// corpus and records every run in the audit log.
type Pipeline struct {
	samples        *SampleLog
	audit          *AuditLog
	classifier     *bayes.Classifier
	modelPath      string
	minPerCategory int
	retrainTrigger int
}

// NewPipeline wires a retraining pipeline around the given corpus,
// audit log and classifier. The retrained model is persisted to
// modelPath on success.
func NewPipeline(samples *SampleLog, audit *AuditLog, classifier *bayes.Classifier, modelPath string, minPerCategory, retrainTrigger int) *Pipeline {
	if minPerCategory < 1 {
		minPerCategory = 1
	}
	if retrainTrigger < 1 {
		retrainTrigger = 10
	}
	return &Pipeline{
		samples:        samples,
		audit:          audit,
		classifier:     classifier,
		modelPath:      modelPath,
		minPerCategory: minPerCategory,
		retrainTrigger: retrainTrigger,
	}
}

// AddManualSample appends a user-confirmed labeled example to the
// corpus.
func (p *Pipeline) AddManualSample(description, category, subcategory string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("training sample description cannot be empty")
	}
	return p.samples.Append(model.TrainingSample{
		AddedAt:     time.Now(),
		Description: description,
		Category:    category,
		Subcategory: subcategory,
		Manual:      true,
	})
}

// Samples returns the full corpus in append order.
func (p *Pipeline) Samples() ([]model.TrainingSample, error) {
	return p.samples.All()
}

// ShouldRetrain reports whether the corpus has accumulated enough
// samples to warrant a retraining run. An unreadable corpus reads as
// not ready.
func (p *Pipeline) ShouldRetrain() bool {
	samples, err := p.samples.All()
	if err != nil {
		slog.Warn("failed to read training corpus", "error", err)
		return false
	}
	return len(samples) >= p.retrainTrigger
}

// History returns every recorded retraining run.
func (p *Pipeline) History() ([]model.RetrainReport, error) {
	return p.audit.All()
}

// Run retrains the classifier from the full corpus. Every run is
// recorded in the audit log whether it trained, was skipped for lack of
// data, or failed outright. The returned report mirrors the audit
// entry.
func (p *Pipeline) Run(_ context.Context) model.RetrainReport {
	report := model.RetrainReport{
		Timestamp: time.Now(),
		ModelType: bayes.ModelType,
	}

	samples, err := p.samples.All()
	switch {
	case err != nil:
		report.Message = fmt.Sprintf("Failed to load training data: %v", err)
	case len(samples) < minCorpusSize:
		report.Message = fmt.Sprintf("Insufficient training data: %d samples (need at least %d)", len(samples), minCorpusSize)
	default:
		result := p.classifier.Train(samples, p.minPerCategory)
		report.Message = result.Message
		report.SamplesUsed = result.SamplesUsed
		if result.Success {
			if saveErr := p.classifier.SaveTo(p.modelPath); saveErr != nil {
				report.Message = fmt.Sprintf("Model trained but could not be saved: %v", saveErr)
			} else {
				report.Success = true
				report.Accuracy = float64(result.SamplesUsed) / float64(max(len(samples), 1))
			}
		}
	}

	if err := p.audit.Append(report); err != nil {
		slog.Warn("failed to record retraining run", "error", err)
	}

	slog.Info("retraining run finished",
		"success", report.Success,
		"samples_used", report.SamplesUsed,
		"message", report.Message)
	return report
}

// Stats summarizes the corpus without training anything.
func (p *Pipeline) Stats() (model.TrainingStats, error) {
	samples, err := p.samples.All()
	if err != nil {
		return model.TrainingStats{}, err
	}

	stats := model.TrainingStats{
		Categories:       make(map[string]int),
		TotalSamples:     len(samples),
		MinSamplesNeeded: p.minPerCategory,
	}
	for _, s := range samples {
		stats.Categories[s.Category]++
		if s.Manual {
			stats.ManualSamples++
		}
	}
	stats.ReadyToTrain = stats.TotalSamples >= minCorpusSize
	return stats, nil
}
