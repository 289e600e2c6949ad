package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekervik/kontoklar/internal/common"
	"github.com/ekervik/kontoklar/internal/model"
)

// GetTaxonomy returns the full category tree, categories and their
// subcategories both ordered by name.
func (s *SQLiteStorage) GetTaxonomy(ctx context.Context) (model.Taxonomy, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.name, c.created_at, sc.name
		FROM categories c
		LEFT JOIN subcategories sc ON sc.category_id = c.id
		ORDER BY c.name, sc.name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var taxonomy model.Taxonomy
	for rows.Next() {
		var (
			id        int
			name      string
			createdAt time.Time
			sub       sql.NullString
		)
		if err := rows.Scan(&id, &name, &createdAt, &sub); err != nil {
			return nil, fmt.Errorf("failed to scan taxonomy row: %w", err)
		}

		if len(taxonomy) == 0 || taxonomy[len(taxonomy)-1].ID != id {
			taxonomy = append(taxonomy, model.Category{
				CreatedAt: createdAt,
				Name:      name,
				ID:        id,
			})
		}
		if sub.Valid {
			last := &taxonomy[len(taxonomy)-1]
			last.Subcategories = append(last.Subcategories, sub.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxonomy: %w", err)
	}

	slog.Debug("retrieved taxonomy", "categories", len(taxonomy))
	return taxonomy, nil
}

// CreateCategory creates a category with optional subcategories. An
// existing name returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, subcategories []string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	now := time.Now()
	category := &model.Category{CreatedAt: now, Name: name}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.lookupCategoryID(ctx, tx, name)
		if err == nil {
			return fmt.Errorf("category %s: %w", name, common.ErrDuplicateEntry)
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, created_at) VALUES (?, ?)`, name, now)
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category ID: %w", err)
		}
		category.ID = int(id)

		for _, sub := range subcategories {
			if err := validateString(sub, "subcategory"); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subcategories (category_id, name, created_at) VALUES (?, ?, ?)`,
				category.ID, sub, now); err != nil {
				return fmt.Errorf("failed to create subcategory %s: %w", sub, err)
			}
			category.Subcategories = append(category.Subcategories, sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created category",
		"name", name,
		"subcategories", len(category.Subcategories))
	return category, nil
}

// AddSubcategory appends a subcategory to an existing category. A
// missing category returns common.ErrNotFound, an existing subcategory
// common.ErrDuplicateEntry.
func (s *SQLiteStorage) AddSubcategory(ctx context.Context, category, subcategory string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if err := validateString(subcategory, "subcategory"); err != nil {
		return err
	}

	categoryID, err := s.lookupCategoryID(ctx, s.db, category)
	if err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subcategories WHERE category_id = ? AND name = ?`,
		categoryID, subcategory).Scan(&count); err != nil {
		return fmt.Errorf("failed to check existing subcategory: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("subcategory %s/%s: %w", category, subcategory, common.ErrDuplicateEntry)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO subcategories (category_id, name, created_at) VALUES (?, ?, ?)`,
		categoryID, subcategory, time.Now()); err != nil {
		return fmt.Errorf("failed to add subcategory: %w", err)
	}

	slog.Info("added subcategory", "category", category, "subcategory", subcategory)
	return nil
}

// lookupCategoryID resolves a category name to its ID, inside or
// outside a transaction. A missing name returns common.ErrNotFound.
func (s *SQLiteStorage) lookupCategoryID(ctx context.Context, q queryable, name string) (int, error) {
	var id int
	err := q.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("category %s: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up category: %w", err)
	}
	return id, nil
}
