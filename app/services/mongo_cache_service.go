package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/address-classifier/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const addressCacheCollection = "address_cache"

// MongoCacheService is a persistent cache in MongoDB with an LRU in front.
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.AddressResult]
	ttl        time.Duration
	logger     *zap.Logger

	l1Hits    atomic.Int64
	mongoHits atomic.Int64
	misses    atomic.Int64
}

// NewMongoCacheService creates the collection indexes and the L1 cache.
// With a positive ttl MongoDB expires documents by created_at.
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.AddressResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create l1 cache: %w", err)
	}
	collection := db.Collection(addressCacheCollection)

	createdAt := options.Index()
	if ttl > 0 {
		createdAt.SetExpireAfterSeconds(int32(ttl.Seconds()))
	}
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "classifier_version", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: createdAt},
		{Keys: bson.D{{Key: "access_count", Value: -1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Could not create address_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		ttl:        ttl,
		logger:     logger,
	}, nil
}

// Get checks the L1 cache, then MongoDB.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		return result.Clone(), true, nil
	}

	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": Fingerprint(key)}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query mongo cache: %w", err)
	}
	if entry.IsExpired(mcs.ttl) {
		mcs.misses.Add(1)
		return nil, false, nil
	}

	mcs.mongoHits.Add(1)
	mcs.touch(ctx, entry.ID)
	mcs.l1Cache.Add(key, entry.Result.Clone())
	return &entry.Result, true, nil
}

// Set writes through to both layers.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	mcs.l1Cache.Add(key, result.Clone())

	fingerprint := Fingerprint(key)
	entry := models.NewAddressCache(fingerprint, key, *result)
	_, err := mcs.collection.ReplaceOne(ctx,
		bson.M{"fingerprint": fingerprint}, entry,
		options.Replace().SetUpsert(true))
	if err != nil {
		mcs.logger.Error("Mongo cache write failed", zap.Error(err), zap.String("fingerprint", fingerprint))
		return fmt.Errorf("write mongo cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)
	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": Fingerprint(key)}); err != nil {
		return fmt.Errorf("delete from mongo cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()
	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear mongo cache: %w", err)
	}
	mcs.l1Hits.Store(0)
	mcs.mongoHits.Store(0)
	mcs.misses.Store(0)
	return nil
}

func (mcs *MongoCacheService) InvalidateByClassifierVersion(ctx context.Context, version string) error {
	mcs.l1Cache.Purge()
	res, err := mcs.collection.DeleteMany(ctx, bson.M{"classifier_version": bson.M{"$ne": version}})
	if err != nil {
		return fmt.Errorf("invalidate mongo cache: %w", err)
	}
	mcs.logger.Info("Invalidated Mongo cache",
		zap.String("classifier_version", version),
		zap.Int64("deleted_count", res.DeletedCount))
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count mongo cache: %w", err)
	}
	hits := mcs.l1Hits.Load() + mcs.mongoHits.Load()
	misses := mcs.misses.Load()
	mcs.logger.Debug("Cache stats",
		zap.Int64("l1_hits", mcs.l1Hits.Load()),
		zap.Int64("mongo_hits", mcs.mongoHits.Load()),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return &CacheStats{
		Backend:    "mongo",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: count,
	}, nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}
	n, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": Fingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("check mongo cache: %w", err)
	}
	return n > 0, nil
}

// GetTTL derives the remaining lifetime from created_at.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl <= 0 {
		return 0, nil
	}
	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": Fingerprint(key)}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if remaining := mcs.ttl - time.Since(entry.CreatedAt); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Close is a no-op; the client belongs to the caller.
func (mcs *MongoCacheService) Close() error { return nil }

func (mcs *MongoCacheService) touch(ctx context.Context, id primitive.ObjectID) {
	_, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	})
	if err != nil {
		mcs.logger.Warn("Access stats update failed", zap.Error(err))
	}
}

// WarmUp loads the most accessed entries into the L1 cache.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.AddressCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Skipping undecodable cache entry", zap.Error(err))
			continue
		}
		result := entry.Result
		mcs.l1Cache.Add(entry.Key, &result)
		count++
	}
	mcs.logger.Info("Cache warm up finished", zap.Int("loaded_items", count))
	return cursor.Err()
}
