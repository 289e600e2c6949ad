package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/testutil"
)

func housingAndFuelExamples() []model.SemanticExample {
	return []model.SemanticExample{
		{Category: "Housing", Subcategory: "Rent", Phrases: []string{"hyra betalning", "monthly rent"}},
		{Category: "Transport", Subcategory: "Fuel", Phrases: []string{"shell tankning"}},
	}
}

func stubEmbedder() *testutil.StubEmbedder {
	return &testutil.StubEmbedder{
		Dim: 3,
		Vectors: map[string][]float32{
			"hyra betalning":  {1, 0, 0},
			"monthly rent":    {0.9, 0.1, 0},
			"shell tankning":  {0, 1, 0},
			"hyra januari":    {0.95, 0.05, 0},
			"helt orelaterad": {0.3, 0.3, 0.9},
		},
	}
}

func TestMatcher_Match(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(ctx, stubEmbedder(), housingAndFuelExamples(), 0.75)
	require.True(t, m.Available())

	match, ok := m.Match(ctx, "hyra januari")
	require.True(t, ok)
	assert.Equal(t, "Housing", match.Category)
	assert.Equal(t, "Rent", match.Subcategory)
	assert.Equal(t, "hyra betalning", match.BestExample)
	assert.Greater(t, match.Similarity, 0.75)
	assert.LessOrEqual(t, match.Similarity, 1.0+1e-9)
}

func TestMatcher_BelowThresholdSuppressed(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(ctx, stubEmbedder(), housingAndFuelExamples(), 0.99)

	_, ok := m.Match(ctx, "helt orelaterad")
	assert.False(t, ok, "an unrelated phrase must not clear a 0.99 threshold")
}

func TestMatcher_TieGoesToFirstCachedBucket(t *testing.T) {
	ctx := context.Background()
	embedder := &testutil.StubEmbedder{
		Dim: 2,
		Vectors: map[string][]float32{
			"phrase a": {1, 0},
			"phrase b": {1, 0},
			"input":    {1, 0},
		},
	}
	examples := []model.SemanticExample{
		{Category: "First", Subcategory: "A", Phrases: []string{"phrase a"}},
		{Category: "Second", Subcategory: "B", Phrases: []string{"phrase b"}},
	}

	m := NewMatcher(ctx, embedder, examples, 0.5)

	match, ok := m.Match(ctx, "input")
	require.True(t, ok)
	assert.Equal(t, "First", match.Category)
}

func TestMatcher_NilProviderUnavailable(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(ctx, nil, housingAndFuelExamples(), 0.75)

	assert.False(t, m.Available())
	_, ok := m.Match(ctx, "hyra januari")
	assert.False(t, ok)
}

func TestMatcher_ConstructionEmbedFailureDisables(t *testing.T) {
	ctx := context.Background()
	embedder := &testutil.StubEmbedder{Fail: true, Dim: 3}

	m := NewMatcher(ctx, embedder, housingAndFuelExamples(), 0.75)

	assert.False(t, m.Available())
	_, ok := m.Match(ctx, "hyra januari")
	assert.False(t, ok)
}

func TestMatcher_PerCallFailureLeavesMatcherAvailable(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(ctx, stubEmbedder(), housingAndFuelExamples(), 0.75)
	require.True(t, m.Available())

	// The stub errors on texts it has no vector for
	_, ok := m.Match(ctx, "text utan vektor")
	assert.False(t, ok)
	assert.True(t, m.Available(), "a single failed call must not disable the matcher")

	_, ok = m.Match(ctx, "hyra januari")
	assert.True(t, ok)
}

func TestMatcher_NoExamples(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(ctx, stubEmbedder(), nil, 0.75)

	assert.True(t, m.Available())
	_, ok := m.Match(ctx, "hyra januari")
	assert.False(t, ok)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
		{name: "dimension mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
