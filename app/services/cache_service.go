package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	result  *models.AddressResult
	expires time.Time
}

// CacheService is a bounded in-process cache with per-entry expiry.
type CacheService struct {
	lru *expirable.LRU[string, memoryEntry]
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a CacheService holding at most size entries.
func NewCacheService(size int, ttl time.Duration) *CacheService {
	if size <= 0 {
		size = 1000
	}
	return &CacheService{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl: ttl,
	}
}

func (cs *CacheService) Get(_ context.Context, key string) (*models.AddressResult, bool, error) {
	e, ok := cs.lru.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return e.result.Clone(), true, nil
}

func (cs *CacheService) Set(_ context.Context, key string, result *models.AddressResult) error {
	e := memoryEntry{result: result.Clone()}
	if cs.ttl > 0 {
		e.expires = time.Now().Add(cs.ttl)
	}
	cs.lru.Add(key, e)
	return nil
}

func (cs *CacheService) Delete(_ context.Context, key string) error {
	cs.lru.Remove(key)
	return nil
}

func (cs *CacheService) Clear(context.Context) error {
	cs.lru.Purge()
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

func (cs *CacheService) InvalidateByClassifierVersion(_ context.Context, version string) error {
	for _, key := range cs.lru.Keys() {
		if e, ok := cs.lru.Peek(key); ok && e.result.ClassifierVersion != version {
			cs.lru.Remove(key)
		}
	}
	return nil
}

func (cs *CacheService) GetStats(context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Backend:    "memory",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.lru.Len()),
	}, nil
}

func (cs *CacheService) Exists(_ context.Context, key string) (bool, error) {
	return cs.lru.Contains(key), nil
}

// GetTTL returns the remaining lifetime of key, zero when absent or unbounded.
func (cs *CacheService) GetTTL(_ context.Context, key string) (time.Duration, error) {
	e, ok := cs.lru.Peek(key)
	if !ok || e.expires.IsZero() {
		return 0, nil
	}
	if remaining := time.Until(e.expires); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (cs *CacheService) Close() error { return nil }
