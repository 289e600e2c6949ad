package engine

import (
	"context"
	"log/slog"

	"github.com/ekervik/kontoklar/internal/bayes"
	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/rules"
	"github.com/ekervik/kontoklar/internal/semantic"
)

// Strategy is one backend in the classification waterfall. TryClassify
// returns false when the backend has no answer it is willing to stand
// behind, which hands the description to the next strategy in line.
type Strategy interface {
	Name() string
	TryClassify(ctx context.Context, description string) (model.Classification, bool)
}

// aiStrategy consults the trained statistical classifier. Predictions
// below the confidence threshold, and labels that do not exist in the
// category taxonomy, are discarded rather than surfaced.
type aiStrategy struct {
	classifier *bayes.Classifier
	taxonomy   model.Taxonomy
	threshold  float64
}

func (s *aiStrategy) Name() string { return "ai" }

func (s *aiStrategy) TryClassify(_ context.Context, description string) (model.Classification, bool) {
	if s.classifier == nil || !s.classifier.Trained() {
		return model.Classification{}, false
	}

	prediction, ok := s.classifier.Predict(description)
	if !ok || prediction.Confidence < s.threshold {
		return model.Classification{}, false
	}
	if len(s.taxonomy) > 0 && !s.taxonomy.HasLabel(prediction.Category, prediction.Subcategory) {
		slog.Debug("discarding prediction outside taxonomy",
			"category", prediction.Category,
			"subcategory", prediction.Subcategory)
		return model.Classification{}, false
	}

	return model.Classification{
		Category:        prediction.Category,
		Subcategory:     prediction.Subcategory,
		Source:          model.SourceAI,
		ConfidenceScore: prediction.Confidence,
	}, true
}

// semanticStrategy matches against the curated example phrases.
// Accepted matches below the auto-accept threshold are flagged for
// human review instead of being rejected.
type semanticStrategy struct {
	matcher    *semantic.Matcher
	autoAccept float64
}

func (s *semanticStrategy) Name() string { return "semantic" }

func (s *semanticStrategy) TryClassify(ctx context.Context, description string) (model.Classification, bool) {
	if s.matcher == nil {
		return model.Classification{}, false
	}

	match, ok := s.matcher.Match(ctx, description)
	if !ok {
		return model.Classification{}, false
	}

	return model.Classification{
		Category:        match.Category,
		Subcategory:     match.Subcategory,
		Source:          model.SourceSemantic,
		MatchedExample:  match.BestExample,
		ConfidenceScore: match.Similarity,
		Flagged:         match.Similarity < s.autoAccept,
	}, true
}

// ruleStrategy applies the user's pattern rules. A rule hit is an
// explicit instruction, so it carries full confidence.
type ruleStrategy struct {
	matcher *rules.Matcher
}

func (s *ruleStrategy) Name() string { return "rule" }

func (s *ruleStrategy) TryClassify(_ context.Context, description string) (model.Classification, bool) {
	if s.matcher == nil {
		return model.Classification{}, false
	}

	rule, ok := s.matcher.Match(description)
	if !ok {
		return model.Classification{}, false
	}

	return model.Classification{
		Category:        rule.Category,
		Subcategory:     rule.Subcategory,
		Source:          model.SourceRule,
		ConfidenceScore: 1.0,
	}, true
}
