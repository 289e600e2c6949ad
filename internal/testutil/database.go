// Package testutil provides shared helpers for package tests: an
// in-memory database with migrations applied and a deterministic
// embedding provider double.
package testutil

import (
	"context"
	"testing"

	"github.com/ekervik/kontoklar/internal/model"
	"github.com/ekervik/kontoklar/internal/service"
	"github.com/ekervik/kontoklar/internal/storage"
)

// TestDB bundles an in-memory store with the test that owns it.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database, seeds the given
// categories on top of the migration defaults, and registers cleanup.
func SetupTestDB(t *testing.T, taxonomy ...model.Category) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, cat := range taxonomy {
		if _, err := store.CreateCategory(ctx, cat.Name, cat.Subcategories); err != nil {
			t.Fatalf("failed to seed category %q: %v", cat.Name, err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedTransactions stores the given transactions or fails the test.
func (db *TestDB) SeedTransactions(transactions ...model.Transaction) {
	db.t.Helper()
	if err := db.Storage.SaveTransactions(context.Background(), transactions); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
}
