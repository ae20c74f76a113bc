package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/classifier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const classifierCollection = "classifier_objects"

// ErrNoRepository is returned when MongoDB is not configured.
var ErrNoRepository = errors.New("classifier repository not configured")

// ClassifierRepository stores classifier objects in MongoDB.
type ClassifierRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewClassifierRepository creates the repository and its indexes.
func NewClassifierRepository(ctx context.Context, db *mongo.Database, logger *zap.Logger) *ClassifierRepository {
	collection := db.Collection(classifierCollection)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "guid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "level", Value: 1}, {Key: "parent_guid", Value: 1}}},
		{Keys: bson.D{{Key: "classifier_version", Value: 1}}},
	})
	if err != nil {
		logger.Warn("Could not create classifier indexes", zap.Error(err))
	}
	return &ClassifierRepository{collection: collection, logger: logger}
}

// Upsert writes objs by GUID under version.
func (r *ClassifierRepository) Upsert(ctx context.Context, objs []classifier.Object, version string) (int64, error) {
	if len(objs) == 0 {
		return 0, nil
	}
	writes := make([]mongo.WriteModel, 0, len(objs))
	for _, o := range objs {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"guid": o.GUID}).
			SetReplacement(models.NewClassifierObject(o, version)).
			SetUpsert(true))
	}
	res, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("upsert classifier objects: %w", err)
	}
	return res.UpsertedCount + res.ModifiedCount, nil
}

// All loads every stored object.
func (r *ClassifierRepository) All(ctx context.Context) ([]classifier.Object, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find classifier objects: %w", err)
	}
	defer cursor.Close(ctx)

	var objs []classifier.Object
	for cursor.Next(ctx) {
		var doc models.ClassifierObject
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Warn("Skipping undecodable classifier object", zap.Error(err))
			continue
		}
		objs = append(objs, doc.Object)
	}
	return objs, cursor.Err()
}

// Count returns the number of stored objects.
func (r *ClassifierRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

// ClassifierInfo describes the active classifier.
type ClassifierInfo struct {
	Backend  string `json:"backend"`
	Version  string `json:"version"`
	Objects  int    `json:"objects"`
	SeededAt string `json:"seeded_at,omitempty"`
}

// ClassifierService loads classifier objects into the active lookup.
type ClassifierService struct {
	repo   *ClassifierRepository
	memory *classifier.MemoryLookup
	meili  *classifier.MeiliLookup
	filler *classifier.Filler
	cache  ICacheService
	logger *zap.Logger

	mu   sync.Mutex
	info ClassifierInfo
}

// ClassifierServiceDeps are the optional collaborators of a ClassifierService.
type ClassifierServiceDeps struct {
	Repository *ClassifierRepository
	Memory     *classifier.MemoryLookup
	Meili      *classifier.MeiliLookup
	Filler     *classifier.Filler
	Cache      ICacheService
}

// NewClassifierService creates a ClassifierService.
func NewClassifierService(deps ClassifierServiceDeps, version string, logger *zap.Logger) *ClassifierService {
	cs := &ClassifierService{
		repo:   deps.Repository,
		memory: deps.Memory,
		meili:  deps.Meili,
		filler: deps.Filler,
		cache:  deps.Cache,
		info:   ClassifierInfo{Version: version},
		logger: logger,
	}
	switch {
	case cs.meili != nil:
		cs.info.Backend = "meili"
	case cs.memory != nil:
		cs.info.Backend = "memory"
		cs.info.Objects = cs.memory.Len()
	default:
		cs.info.Backend = "none"
	}
	return cs
}

// Objects loads the objects of source: "sample" or "mongo".
func (cs *ClassifierService) Objects(ctx context.Context, source string) ([]classifier.Object, error) {
	switch source {
	case "sample":
		return classifier.SampleObjects(), nil
	case "mongo":
		if cs.repo == nil {
			return nil, ErrNoRepository
		}
		return cs.repo.All(ctx)
	}
	return nil, fmt.Errorf("unknown classifier source %q", source)
}

// Seed replaces the searchable objects with those of source, drops the
// lookup and result caches and returns the number of objects loaded.
func (cs *ClassifierService) Seed(ctx context.Context, source string, batchSize int) (int, error) {
	start := time.Now()
	objs, err := cs.Objects(ctx, source)
	if err != nil {
		return 0, err
	}
	if cs.memory != nil {
		cs.memory.Add(objs...)
	}
	if cs.meili != nil {
		if err := cs.meili.Configure(ctx); err != nil {
			return 0, err
		}
		if err := cs.meili.Seed(ctx, classifier.BuildDocuments(objs), batchSize); err != nil {
			return 0, err
		}
	}
	if cs.filler != nil {
		cs.filler.Purge()
	}
	if cs.cache != nil {
		if err := cs.cache.Clear(ctx); err != nil {
			cs.logger.Warn("Result cache clear failed after seed", zap.Error(err))
		}
	}

	cs.mu.Lock()
	cs.info.Objects = len(objs)
	if cs.memory != nil {
		cs.info.Objects = cs.memory.Len()
	}
	cs.info.SeededAt = time.Now().Format(time.RFC3339)
	cs.mu.Unlock()
	cs.logger.Info("Classifier seeded",
		zap.String("source", source),
		zap.Int("objects", len(objs)),
		zap.Duration("elapsed", time.Since(start)))
	return len(objs), nil
}

// Import stores objs in MongoDB.
func (cs *ClassifierService) Import(ctx context.Context, objs []classifier.Object) (int64, error) {
	if cs.repo == nil {
		return 0, ErrNoRepository
	}
	return cs.repo.Upsert(ctx, objs, cs.Info().Version)
}

// Info describes the active classifier.
func (cs *ClassifierService) Info() ClassifierInfo {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.info
}
