package services

import (
	"context"
	"testing"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func result(raw, version string) *models.AddressResult {
	return &models.AddressResult{Raw: raw, ClassifierVersion: version, Components: []models.Component{}}
}

func TestCacheService(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)

	_, found, err := cs.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "a", result("адрес а", "v1")))
	require.NoError(t, cs.Set(ctx, "b", result("адрес б", "v2")))

	got, found, err := cs.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "адрес а", got.Raw)

	ok, _ := cs.Exists(ctx, "b")
	assert.True(t, ok)
	ttl, _ := cs.GetTTL(ctx, "b")
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(2), stats.TotalItems)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	require.NoError(t, cs.InvalidateByClassifierVersion(ctx, "v2"))
	ok, _ = cs.Exists(ctx, "a")
	assert.False(t, ok, "other versions are dropped")
	ok, _ = cs.Exists(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, cs.Delete(ctx, "b"))
	ok, _ = cs.Exists(ctx, "b")
	assert.False(t, ok)

	require.NoError(t, cs.Set(ctx, "c", result("c", "v1")))
	require.NoError(t, cs.Clear(ctx))
	stats, _ = cs.GetStats(ctx)
	assert.Zero(t, stats.TotalItems)
	assert.Zero(t, stats.TotalHits)
}

func TestCacheService_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)

	stored := result("адрес", "v1")
	stored.Components = append(stored.Components, models.Component{Level: "CITY", Name: "Москва"})
	require.NoError(t, cs.Set(ctx, "k", stored))
	stored.Raw = "changed after set"
	stored.Components[0].Name = "Тверь"

	hit, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "адрес", hit.Raw)
	assert.Equal(t, "Москва", hit.Components[0].Name)

	hit.Raw = "changed after get"
	hit.Components[0].Name = "Тверь"
	hit.Messages = append(hit.Messages, models.Message{Level: "CITY", Severity: "info", Text: "x"})

	again, _, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "адрес", again.Raw)
	assert.Equal(t, "Москва", again.Components[0].Name)
	assert.Empty(t, again.Messages)
}

func TestCacheService_Bounded(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(3, 0)
	for i := 0; i < 10; i++ {
		require.NoError(t, cs.Set(ctx, gofakeit.UUID(), result(gofakeit.Street(), "v")))
	}
	stats, _ := cs.GetStats(ctx)
	assert.Equal(t, int64(3), stats.TotalItems)
}

func TestHybridCacheService(t *testing.T) {
	ctx := context.Background()
	l1 := NewCacheService(10, time.Hour)
	l2 := NewCacheService(10, time.Hour)
	hc := NewHybridCacheService(l1, l2, zap.NewNop())

	require.NoError(t, hc.Set(ctx, "k", result("x", "v1")))
	ok, _ := l1.Exists(ctx, "k")
	assert.True(t, ok)
	ok, _ = l2.Exists(ctx, "k")
	assert.True(t, ok)

	t.Run("L2 hit is copied to L1", func(t *testing.T) {
		require.NoError(t, l2.Set(ctx, "only-l2", result("y", "v1")))
		got, found, err := hc.Get(ctx, "only-l2")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "y", got.Raw)
		ok, _ := l1.Exists(ctx, "only-l2")
		assert.True(t, ok)
	})

	t.Run("miss in both", func(t *testing.T) {
		_, found, err := hc.Get(ctx, "nothing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete removes from both", func(t *testing.T) {
		require.NoError(t, hc.Delete(ctx, "k"))
		ok, _ := hc.Exists(ctx, "k")
		assert.False(t, ok)
	})

	stats, err := hc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory+memory", stats.Backend)
	assert.Equal(t, int64(1), stats.TotalItems)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("v1|FMT|москва")
	assert.Equal(t, a, Fingerprint("v1|FMT|москва"))
	assert.NotEqual(t, a, Fingerprint("v2|FMT|москва"))
	assert.Len(t, a, len("sha256:")+64)
}
