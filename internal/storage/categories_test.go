package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekervik/kontoklar/internal/common"
)

func TestCreateCategoryAndGetTaxonomy(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Mat", []string{"Livsmedel", "Restaurang"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"Livsmedel", "Restaurang"}, created.Subcategories)

	_, err = store.CreateCategory(ctx, "Transport", []string{"Bränsle"})
	require.NoError(t, err)

	taxonomy, err := store.GetTaxonomy(ctx)
	require.NoError(t, err)

	// Alphabetical, with the migration-seeded default bucket included.
	assert.Equal(t, []string{"Mat", "Other", "Transport"}, taxonomy.Names())
	assert.True(t, taxonomy.HasLabel("Mat", "Livsmedel"))
	assert.True(t, taxonomy.HasLabel("Mat", "Restaurang"))
	assert.True(t, taxonomy.HasLabel("Transport", "Bränsle"))
	assert.False(t, taxonomy.HasLabel("Mat", "Bränsle"))
}

func TestCreateCategory_RejectsDuplicate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Mat", nil)
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, "Mat", []string{"Livsmedel"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	taxonomy, err := store.GetTaxonomy(ctx)
	require.NoError(t, err)
	assert.Empty(t, taxonomy[0].Subcategories, "the failed create must not leave partial subcategories")
}

func TestAddSubcategory(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Mat", []string{"Livsmedel"})
	require.NoError(t, err)

	require.NoError(t, store.AddSubcategory(ctx, "Mat", "Restaurang"))

	taxonomy, err := store.GetTaxonomy(ctx)
	require.NoError(t, err)
	assert.True(t, taxonomy.HasLabel("Mat", "Restaurang"))

	err = store.AddSubcategory(ctx, "Mat", "Restaurang")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	err = store.AddSubcategory(ctx, "Resor", "Flyg")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
