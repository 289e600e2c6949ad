package training

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ekervik/kontoklar/internal/model"
)

// suggestedRulePriority ranks generated rules below hand-written ones,
// which default higher, so a curated rule always wins a tie.
const suggestedRulePriority = 60

// maxKeywords caps how many tokens ExtractKeywords returns.
const maxKeywords = 5

var keywordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// noiseWords are connective tokens that never make useful rule
// patterns.
var noiseWords = map[string]bool{
	// Swedish
	"och": true, "eller": true, "för": true, "från": true,
	"till": true, "med": true, "den": true, "det": true,
	"ett": true, "som": true, "hos": true, "via": true,
	// English
	"the": true, "and": true, "for": true, "from": true,
	"with": true, "payment": true,
}

// RuleStore is the slice of storage the rule suggester needs.
type RuleStore interface {
	GetRules(ctx context.Context) ([]model.ClassificationRule, error)
	CreateRule(ctx context.Context, rule *model.ClassificationRule) (int, error)
}

// SuggestResult reports the outcome of one rule-suggestion pass.
type SuggestResult struct {
	Message      string
	RulesCreated int
	Success      bool
}

// ExtractKeywords returns up to five informative lowercase tokens from
// a transaction description, most useful first. Short tokens and
// connective words are dropped.
func ExtractKeywords(description string) []string {
	var keywords []string
	for _, token := range keywordPattern.FindAllString(strings.ToLower(description), -1) {
		if len([]rune(token)) <= 2 || noiseWords[token] {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// SuggestRules derives classification rules from manually confirmed
// samples: the leading keyword of each description becomes a substring
// pattern for that sample's label. Keywords already covered by an
// existing rule are skipped, so repeated passes are idempotent.
func (p *Pipeline) SuggestRules(ctx context.Context, store RuleStore) (SuggestResult, error) {
	samples, err := p.samples.All()
	if err != nil {
		return SuggestResult{}, err
	}

	var manual []model.TrainingSample
	for _, s := range samples {
		if s.Manual {
			manual = append(manual, s)
		}
	}
	if len(manual) < 2 {
		return SuggestResult{
			Message: fmt.Sprintf("Need at least 2 manual samples to train. Currently have %d.", len(manual)),
		}, nil
	}

	existing, err := store.GetRules(ctx)
	if err != nil {
		return SuggestResult{}, fmt.Errorf("failed to load existing rules: %w", err)
	}

	created := 0
	categories := make(map[string]bool)
	seen := make(map[string]bool)
	for _, s := range manual {
		keywords := ExtractKeywords(s.Description)
		if len(keywords) == 0 {
			continue
		}
		primary := keywords[0]
		if seen[primary] || coveredByExisting(existing, primary) {
			continue
		}
		seen[primary] = true

		rule := model.ClassificationRule{
			CreatedAt:   time.Now(),
			Pattern:     strings.ToUpper(primary),
			Category:    s.Category,
			Subcategory: s.Subcategory,
			Priority:    suggestedRulePriority,
			AIGenerated: true,
		}
		if _, err := store.CreateRule(ctx, &rule); err != nil {
			return SuggestResult{}, fmt.Errorf("failed to create suggested rule %q: %w", rule.Pattern, err)
		}
		created++
		categories[s.Category] = true

		slog.Info("created suggested rule",
			"pattern", rule.Pattern,
			"category", s.Category,
			"subcategory", s.Subcategory)
	}

	return SuggestResult{
		Message:      fmt.Sprintf("Training complete! Created %d new categorization rules.", created),
		RulesCreated: created,
		Success:      true,
	}, nil
}

// coveredByExisting reports whether any existing rule pattern already
// contains the keyword.
func coveredByExisting(rules []model.ClassificationRule, keyword string) bool {
	for _, r := range rules {
		if strings.Contains(strings.ToLower(r.Pattern), keyword) {
			return true
		}
	}
	return false
}
