package services

import (
	"context"
	"errors"
	"time"

	"github.com/address-classifier/app/models"
	"go.uber.org/zap"
)

// HybridCacheService layers a fast cache (Redis) over a persistent one (MongoDB).
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService creates a two-level cache.
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

// both runs fn on the two layers concurrently and joins their errors.
func (hcs *HybridCacheService) both(fn func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) { errCh <- fn(c) }(c)
	}
	return errors.Join(<-errCh, <-errCh)
}

// Get reads L1, then L2, copying L2 hits back into L1.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache failed, falling back to L2", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := hcs.l1.Set(ctx, key, result); err != nil {
		hcs.logger.Warn("L2 to L1 sync failed", zap.Error(err), zap.String("key", key))
	}
	return result, true, nil
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) })
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) })
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	return hcs.both(func(c ICacheService) error { return c.Clear(ctx) })
}

func (hcs *HybridCacheService) InvalidateByClassifierVersion(ctx context.Context, version string) error {
	return hcs.both(func(c ICacheService) error { return c.InvalidateByClassifierVersion(ctx, version) })
}

// GetStats sums the counters of both layers. Items are those of L2, which
// holds everything L1 does.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	s1, err1 := hcs.l1.GetStats(ctx)
	s2, err2 := hcs.l2.GetStats(ctx)
	switch {
	case err1 != nil && err2 != nil:
		return nil, errors.Join(err1, err2)
	case err1 != nil:
		return s2, nil
	case err2 != nil:
		return s1, nil
	}
	hits := s1.TotalHits + s2.TotalHits
	misses := s2.TotalMiss
	return &CacheStats{
		Backend:    s1.Backend + "+" + s2.Backend,
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: s2.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := hcs.l1.Exists(ctx, key)
	if err == nil && ok {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}
