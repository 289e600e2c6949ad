package model

// ClassificationSource indicates which strategy produced a classification.
type ClassificationSource string

// Classification source constants, in pipeline priority order.
const (
	SourceAI       ClassificationSource = "ai"
	SourceSemantic ClassificationSource = "semantic"
	SourceRule     ClassificationSource = "rule"
	SourceDefault  ClassificationSource = "default"
)

// Default bucket for transactions no strategy could place.
const (
	DefaultCategory    = "Other"
	DefaultSubcategory = "Unknown"
)

// Classification is the outcome of running one description through the pipeline.
// Flagged marks results that need human review even when they were accepted.
type Classification struct {
	Category        string
	Subcategory     string
	Source          ClassificationSource
	MatchedExample  string // Closest curated phrase, semantic matches only
	ConfidenceScore float64
	Flagged         bool
}

// DefaultClassification returns the fallback bucket every pipeline run
// starts from and falls back to when no strategy clears its threshold.
func DefaultClassification() Classification {
	return Classification{
		Category:        DefaultCategory,
		Subcategory:     DefaultSubcategory,
		ConfidenceScore: 0.0,
		Source:          SourceDefault,
		Flagged:         true,
	}
}
