package model

import "time"

// ClassificationRule maps a description pattern to a category/subcategory.
// Patterns are regular expressions matched case-insensitively; a pattern
// that does not compile is matched as a plain substring instead.
type ClassificationRule struct {
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
	Pattern     string    `yaml:"pattern"`
	Category    string    `yaml:"category"`
	Subcategory string    `yaml:"subcategory"`
	ID          int       `yaml:"-"`
	Priority    int       `yaml:"priority"`
	AIGenerated bool      `yaml:"ai_generated,omitempty"`
}
