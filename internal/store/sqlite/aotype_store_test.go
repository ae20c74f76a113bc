package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAOTypeStore_LoadIntoCatalog(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	store := NewAOTypeStore(db, "socrbase", zap.NewNop())
	require.NoError(t, store.CreateSchema(ctx))
	require.NoError(t, store.Insert(ctx, 7, "ул", "Улица", "729"))
	require.NoError(t, store.Insert(ctx, 7, "линия", "Линия", "713"))
	require.NoError(t, store.Insert(ctx, 4, "г", "Город", "401"))
	require.NoError(t, store.Insert(ctx, 99, "x", "неизвестно", ""))

	entries, err := store.LoadAOTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	c, err := catalog.Load(ctx, nil, zap.NewNop(), store)
	require.NoError(t, err)

	ok, full, id := c.IsValidAOType(address.LevelStreet, "ул.")
	assert.True(t, ok)
	assert.Equal(t, "Улица", full)
	assert.Equal(t, 729, id)

	ok, full, _ = c.IsValidAOType(address.LevelCity, "г")
	assert.True(t, ok)
	assert.Equal(t, "Город", full)
}
