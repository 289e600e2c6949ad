package training

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/model"
)

type fakeRuleStore struct {
	rules  []model.ClassificationRule
	nextID int
}

func (f *fakeRuleStore) GetRules(context.Context) ([]model.ClassificationRule, error) {
	return f.rules, nil
}

func (f *fakeRuleStore) CreateRule(_ context.Context, rule *model.ClassificationRule) (int, error) {
	f.nextID++
	rule.ID = f.nextID
	f.rules = append(f.rules, *rule)
	return f.nextID, nil
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "merchant tokens survive",
			description: "ICA SUPERMARKET STOCKHOLM",
			want:        []string{"ica", "supermarket", "stockholm"},
		},
		{
			name:        "noise and short tokens are dropped",
			description: "Betalning till ICA och COOP AB",
			want:        []string{"betalning", "ica", "coop"},
		},
		{
			name:        "swedish letters count as word characters",
			description: "RÄNTA PÅ BOLÅN",
			want:        []string{"ränta", "bolån"},
		},
		{
			name:        "capped at five keywords",
			description: "alpha bravo charlie delta echo foxtrot golf",
			want:        []string{"alpha", "bravo", "charlie", "delta", "echo"},
		},
		{
			name:        "nothing useful",
			description: "AB - 12",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.description))
		})
	}
}

func TestPipeline_SuggestRules(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "SPOTIFY AB STOCKHOLM", Category: "Nöje", Subcategory: "Musik", Manual: true},
		model.TrainingSample{Description: "NETFLIX.COM", Category: "Nöje", Subcategory: "Streaming", Manual: true},
		model.TrainingSample{Description: "SHELL TANKNING", Category: "Transport", Subcategory: "Bränsle"},
	)

	store := &fakeRuleStore{}
	result, err := pipeline.SuggestRules(context.Background(), store)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RulesCreated)
	assert.Equal(t, "Training complete! Created 2 new categorization rules.", result.Message)

	require.Len(t, store.rules, 2, "automatic samples are not suggestion sources")
	assert.Equal(t, "SPOTIFY", store.rules[0].Pattern)
	assert.Equal(t, "Nöje", store.rules[0].Category)
	assert.Equal(t, "Musik", store.rules[0].Subcategory)
	assert.Equal(t, suggestedRulePriority, store.rules[0].Priority)
	assert.True(t, store.rules[0].AIGenerated)
	assert.Equal(t, "NETFLIX", store.rules[1].Pattern)
}

func TestPipeline_SuggestRulesSkipsCoveredKeywords(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "SPOTIFY AB STOCKHOLM", Category: "Nöje", Subcategory: "Musik", Manual: true},
		model.TrainingSample{Description: "SPOTIFY FAMILY PLAN", Category: "Nöje", Subcategory: "Musik", Manual: true},
		model.TrainingSample{Description: "NETFLIX.COM", Category: "Nöje", Subcategory: "Streaming", Manual: true},
	)

	store := &fakeRuleStore{rules: []model.ClassificationRule{
		{ID: 1, Pattern: "NETFLIX|HBO", Category: "Nöje", Subcategory: "Streaming", Priority: 80},
	}}

	result, err := pipeline.SuggestRules(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RulesCreated, "existing coverage and in-batch duplicates are both skipped")
	require.Len(t, store.rules, 2)
	assert.Equal(t, "SPOTIFY", store.rules[1].Pattern)
}

func TestPipeline_SuggestRulesNeedsTwoManualSamples(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	addSamples(t, pipeline,
		model.TrainingSample{Description: "SPOTIFY AB", Category: "Nöje", Subcategory: "Musik", Manual: true},
		model.TrainingSample{Description: "SHELL TANKNING", Category: "Transport", Subcategory: "Bränsle"},
	)

	store := &fakeRuleStore{}
	result, err := pipeline.SuggestRules(context.Background(), store)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Need at least 2 manual samples to train. Currently have 1.", result.Message)
	assert.Empty(t, store.rules)
}
