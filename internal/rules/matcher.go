// Package rules implements the deterministic rule matcher: a
// priority-ordered waterfall of description patterns.
package rules

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/ekervik/kontoklar/internal/model"
)

// Matcher evaluates classification rules from highest to lowest priority.
// The first rule whose pattern is found in the text wins; rules with equal
// priority keep their original list order.
type Matcher struct {
	rules    []model.ClassificationRule
	compiled []*regexp.Regexp // aligned with rules; nil falls back to substring search
}

// NewMatcher creates a matcher over a copy of the given rules.
// Patterns are compiled once as case-insensitive regular expressions; a
// pattern that does not compile degrades to substring matching for that
// rule only, it never fails construction.
func NewMatcher(ruleSet []model.ClassificationRule) *Matcher {
	sorted := make([]model.ClassificationRule, len(ruleSet))
	copy(sorted, ruleSet)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	m := &Matcher{
		rules:    sorted,
		compiled: make([]*regexp.Regexp, len(sorted)),
	}

	for i, rule := range sorted {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			slog.Debug("rule pattern is not a valid regexp, using substring matching",
				"pattern", rule.Pattern,
				"rule_id", rule.ID)
			continue
		}
		m.compiled[i] = re
	}

	return m
}

// Match returns the first rule whose pattern is found, case-insensitively,
// within text. Rules with an empty pattern never match.
func (m *Matcher) Match(text string) (model.ClassificationRule, bool) {
	lower := strings.ToLower(text)

	for i, rule := range m.rules {
		if rule.Pattern == "" {
			continue
		}
		if re := m.compiled[i]; re != nil {
			if re.MatchString(text) {
				return rule, true
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(rule.Pattern)) {
			return rule, true
		}
	}

	return model.ClassificationRule{}, false
}

// Len returns the number of configured rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}
