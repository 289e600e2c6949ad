// Package engine runs transaction descriptions through the layered
// classification waterfall and feeds manual corrections back into the
// retraining pipeline.
package engine

import (
	"context"
	"log/slog"

	"github.com/ekervik/kontoklar/internal/bayes"
	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/rules"
	"github.com/ekervik/kontoklar/internal/semantic"
	"github.com/ekervik/kontoklar/internal/training"
)

// defaultRetrainTrigger is how many manual overrides accumulate before
// an automatic retraining run.
const defaultRetrainTrigger = 10

// Config carries the thresholds the waterfall gates on.
type Config struct {
	ConfidenceThreshold float64 // Statistical predictions below this are discarded
	SemanticAutoAccept  float64 // Semantic matches below this are flagged for review
	RetrainTrigger      int     // Manual overrides before automatic retraining
}

// Engine is the classification core. Strategies are consulted in a
// fixed order of decreasing sophistication and the first confident
// answer wins; a description nothing claims lands in the default
// bucket, flagged for review.
type Engine struct {
	retrainer  *training.Pipeline
	strategies []Strategy
	trigger    int
	overrides  int
}

// New assembles the waterfall. Any backend may be nil, in which case
// its layer is skipped; a taxonomy may be empty, which disables label
// validation of statistical predictions.
func New(classifier *bayes.Classifier, matcher *semantic.Matcher, ruleMatcher *rules.Matcher, taxonomy model.Taxonomy, retrainer *training.Pipeline, cfg Config) *Engine {
	if cfg.RetrainTrigger < 1 {
		cfg.RetrainTrigger = defaultRetrainTrigger
	}
	return &Engine{
		strategies: []Strategy{
			&aiStrategy{classifier: classifier, taxonomy: taxonomy, threshold: cfg.ConfidenceThreshold},
			&semanticStrategy{matcher: matcher, autoAccept: cfg.SemanticAutoAccept},
			&ruleStrategy{matcher: ruleMatcher},
		},
		retrainer: retrainer,
		trigger:   cfg.RetrainTrigger,
	}
}

// Classify runs one description through the waterfall. It always
// produces a result; when every strategy passes, the transaction lands
// in the default bucket with zero confidence.
func (e *Engine) Classify(ctx context.Context, description string) model.Classification {
	for _, strategy := range e.strategies {
		result, ok := strategy.TryClassify(ctx, description)
		if !ok {
			continue
		}
		slog.Debug("classified description",
			"strategy", strategy.Name(),
			"category", result.Category,
			"subcategory", result.Subcategory,
			"confidence", result.ConfidenceScore,
			"flagged", result.Flagged)
		return result
	}

	slog.Debug("no strategy claimed description, using default bucket")
	return model.DefaultClassification()
}

// ClassifyTransaction classifies the transaction's description and
// writes the outcome onto the transaction itself.
func (e *Engine) ClassifyTransaction(ctx context.Context, txn *model.Transaction) model.Classification {
	result := e.Classify(ctx, txn.Description)
	txn.Category = result.Category
	txn.Subcategory = result.Subcategory
	txn.ClassificationSource = result.Source
	txn.ConfidenceScore = result.ConfidenceScore
	return result
}

// RegisterOverride records a manual correction as a training sample
// and counts it toward the retraining trigger. Retraining is due when
// the session's pending overrides reach the trigger, or when the
// persisted corpus has grown past it; it then runs synchronously and
// its report is returned. The pending counter resets whether or not
// retraining succeeded. A nil report means no retraining was due.
func (e *Engine) RegisterOverride(ctx context.Context, description, category, subcategory string) (*model.RetrainReport, error) {
	if e.retrainer == nil {
		return nil, nil
	}
	if err := e.retrainer.AddManualSample(description, category, subcategory); err != nil {
		return nil, err
	}

	e.overrides++
	slog.Info("manual override recorded",
		"category", category,
		"subcategory", subcategory,
		"pending_overrides", e.overrides,
		"retrain_trigger", e.trigger)

	if e.overrides < e.trigger && !e.retrainer.ShouldRetrain() {
		return nil, nil
	}

	e.overrides = 0
	report := e.retrainer.Run(ctx)
	return &report, nil
}

// OverrideCount returns how many overrides are pending before the next
// automatic retraining run.
func (e *Engine) OverrideCount() int {
	return e.overrides
}
