// Package semantic implements the embedding-similarity matcher: input
// text is compared against curated example phrases and the closest
// bucket wins when it clears the similarity threshold.
package semantic

import (
	"context"
	"log/slog"
	"math"

	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/service"
)

// Match is a successful semantic lookup.
type Match struct {
	Category    string
	Subcategory string
	BestExample string
	Similarity  float64
}

// bucket holds one category's example phrases with their cached vectors.
type bucket struct {
	category    string
	subcategory string
	phrases     []string
	vectors     [][]float32
}

// Matcher compares input text against cached example embeddings. The
// cache is written once at construction and read-only afterwards; an
// unavailable provider permanently disables the matcher for this
// process, it never errors.
type Matcher struct {
	provider  service.EmbeddingProvider
	buckets   []bucket
	threshold float64
	available bool
}

// NewMatcher embeds every example phrase up front. When the provider is
// nil or embedding fails, the matcher is constructed unavailable and
// every Match call reports no result.
func NewMatcher(ctx context.Context, provider service.EmbeddingProvider, examples []model.SemanticExample, threshold float64) *Matcher {
	m := &Matcher{
		provider:  provider,
		threshold: threshold,
	}

	if provider == nil {
		slog.Info("no embedding provider, semantic matching disabled")
		return m
	}

	var phrases []string
	for _, ex := range examples {
		phrases = append(phrases, ex.Phrases...)
	}
	if len(phrases) == 0 {
		m.available = true
		return m
	}

	vectors, err := provider.Embed(ctx, phrases)
	if err != nil {
		slog.Warn("failed to embed example phrases, semantic matching disabled", "error", err)
		return m
	}

	// Bucket order follows the example file; ties at match time go to
	// the first bucket cached.
	i := 0
	for _, ex := range examples {
		if len(ex.Phrases) == 0 {
			continue
		}
		b := bucket{
			category:    ex.Category,
			subcategory: ex.Subcategory,
			phrases:     ex.Phrases,
			vectors:     vectors[i : i+len(ex.Phrases)],
		}
		i += len(ex.Phrases)
		m.buckets = append(m.buckets, b)
	}
	m.available = true

	slog.Info("semantic matcher ready",
		"buckets", len(m.buckets),
		"phrases", len(phrases),
		"threshold", m.threshold)
	return m
}

// Available reports whether the matcher can serve lookups.
func (m *Matcher) Available() bool {
	return m.available
}

// Match embeds text and returns the globally most similar example
// bucket, but only when the similarity clears the threshold. A per-call
// embedding failure reports no result and leaves the matcher available.
func (m *Matcher) Match(ctx context.Context, text string) (Match, bool) {
	if !m.available || len(m.buckets) == 0 {
		return Match{}, false
	}

	vectors, err := m.provider.Embed(ctx, []string{text})
	if err != nil || len(vectors) == 0 {
		slog.Debug("embedding failed for input, skipping semantic match", "error", err)
		return Match{}, false
	}
	input := vectors[0]

	var best Match
	for _, b := range m.buckets {
		for i, vec := range b.vectors {
			sim := cosineSimilarity(input, vec)
			// Strictly greater keeps first-seen on ties
			if sim > best.Similarity {
				best = Match{
					Category:    b.category,
					Subcategory: b.subcategory,
					BestExample: b.phrases[i],
					Similarity:  sim,
				}
			}
		}
	}

	if best.Similarity < m.threshold || best.BestExample == "" {
		return Match{}, false
	}
	return best, true
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// 0 for mismatched dimensions or zero-magnitude input.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
