package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekervik/kontoklar/internal/model"
)

// GetRules returns every categorization rule, highest priority first.
// Rules sharing a priority keep creation order.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.ClassificationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, pattern, category, subcategory, priority, ai_generated, created_at
		FROM categorization_rules
		ORDER BY priority DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.ClassificationRule
	for rows.Next() {
		var rule model.ClassificationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Pattern,
			&rule.Category,
			&rule.Subcategory,
			&rule.Priority,
			&rule.AIGenerated,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	slog.Debug("retrieved rules", "count", len(rules))
	return rules, nil
}

// CreateRule inserts a rule and fills in its assigned ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.ClassificationRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRule(rule); err != nil {
		return 0, err
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categorization_rules (pattern, category, subcategory, priority, ai_generated, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rule.Pattern, rule.Category, rule.Subcategory, rule.Priority, rule.AIGenerated, rule.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = int(id)

	slog.Info("created rule",
		"pattern", rule.Pattern,
		"category", rule.Category,
		"priority", rule.Priority)
	return rule.ID, nil
}

// RuleExistsForPattern reports whether a rule with this exact pattern
// already exists, ignoring case.
func (s *SQLiteStorage) RuleExistsForPattern(ctx context.Context, pattern string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categorization_rules WHERE UPPER(pattern) = UPPER(?)`,
		pattern).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check rule pattern: %w", err)
	}
	return count > 0, nil
}
