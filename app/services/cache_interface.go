package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/address-classifier/app/models"
)

// CacheStats are hit counters and size of a cache.
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores parse results by cache key.
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.AddressResult, bool, error)
	Set(ctx context.Context, key string, result *models.AddressResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// InvalidateByClassifierVersion drops results resolved against any
	// other classifier version.
	InvalidateByClassifierVersion(ctx context.Context, version string) error

	GetStats(ctx context.Context) (*CacheStats, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}

// Fingerprint is the stable digest of a cache key.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
