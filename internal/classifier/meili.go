package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/normalizer"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MeiliConfig configures the Meilisearch backed lookup.
type MeiliConfig struct {
	Host          string  `yaml:"host"`
	APIKey        string  `yaml:"api_key"`
	Index         string  `yaml:"index"`
	Limit         int64   `yaml:"limit"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	CacheSize     int     `yaml:"cache_size"`
}

// Document is the indexed form of an Object. Ancestors lets a search be
// scoped to any resolved parent, not only the direct one.
type Document struct {
	GUID           string   `json:"guid"`
	ParentGUID     string   `json:"parent_guid,omitempty"`
	Ancestors      []string `json:"ancestors"`
	Level          int      `json:"level"`
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name"`
	Translit       string   `json:"translit"`
	Type           string   `json:"type,omitempty"`
	RecordID       int64    `json:"record_id,omitempty"`
	PostalCode     string   `json:"postal_code,omitempty"`
	RegionCode     string   `json:"region_code,omitempty"`
	OKATO          string   `json:"okato,omitempty"`
	OKTMO          string   `json:"oktmo,omitempty"`
	IFNSFL         string   `json:"ifns_fl,omitempty"`
	IFNSUL         string   `json:"ifns_ul,omitempty"`
}

// Object converts the document back.
func (d Document) Object() Object {
	return Object{
		GUID:       d.GUID,
		ParentGUID: d.ParentGUID,
		Level:      address.Level(d.Level),
		Name:       d.Name,
		Type:       d.Type,
		RecordID:   d.RecordID,
		PostalCode: d.PostalCode,
		Codes: address.Codes{
			RegionCode: d.RegionCode,
			OKATO:      d.OKATO,
			OKTMO:      d.OKTMO,
			IFNSFL:     d.IFNSFL,
			IFNSUL:     d.IFNSUL,
		},
	}
}

// BuildDocuments converts objs to index documents, resolving ancestors
// within objs.
func BuildDocuments(objs []Object) []Document {
	tree := NewMemoryLookup(objs...)
	docs := make([]Document, 0, len(objs))
	for _, o := range objs {
		ancestors := tree.Ancestors(o)
		if ancestors == nil {
			ancestors = []string{}
		}
		docs = append(docs, Document{
			GUID:           o.GUID,
			ParentGUID:     o.ParentGUID,
			Ancestors:      ancestors,
			Level:          int(o.Level),
			Name:           o.Name,
			NormalizedName: joinTokens(o.Name),
			Translit:       normalizer.Transliterate(o.Name),
			Type:           o.Type,
			RecordID:       o.RecordID,
			PostalCode:     o.PostalCode,
			RegionCode:     o.Codes.RegionCode,
			OKATO:          o.Codes.OKATO,
			OKTMO:          o.Codes.OKTMO,
			IFNSFL:         o.Codes.IFNSFL,
			IFNSUL:         o.Codes.IFNSUL,
		})
	}
	return docs
}

// MeiliLookup resolves names with Meilisearch. Typo tolerant hits are
// filtered with the fuzzy token equality, so the result matches the
// in-memory lookup on the same data.
type MeiliLookup struct {
	client  meilisearch.ServiceManager
	index   string
	limit   int64
	limiter *rate.Limiter
	cache   *lru.Cache[Query, []Object]
	logger  *zap.Logger
}

// NewMeiliLookup connects to Meilisearch and checks its health.
func NewMeiliLookup(cfg MeiliConfig, logger *zap.Logger) (*MeiliLookup, error) {
	if cfg.Index == "" {
		cfg.Index = "classifier"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 200
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 50
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch health check: %w", err)
	}
	cache, err := lru.New[Query, []Object](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create meilisearch cache: %w", err)
	}
	return &MeiliLookup{
		client:  client,
		index:   cfg.Index,
		limit:   cfg.Limit,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cache:   cache,
		logger:  logger,
	}, nil
}

// Find implements Lookup.
func (m *MeiliLookup) Find(ctx context.Context, q Query) ([]Object, error) {
	if hit, ok := m.cache.Get(q); ok {
		return hit, nil
	}
	name := normalizer.NewName(q.Name)
	if name.IsEmpty() {
		return nil, nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	text := q.Name
	if normalizer.HasLatin(text) {
		text = normalizer.Transliterate(text)
	}
	res, err := m.client.Index(m.index).Search(text, &meilisearch.SearchRequest{
		Limit:  m.limit,
		Filter: Filter(q),
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var out []Object
	for _, hit := range res.Hits {
		doc, err := decodeHit(hit)
		if err != nil {
			m.logger.Warn("Skipping malformed classifier document", zap.Error(err))
			continue
		}
		if !normalizer.Equal(name, normalizer.NewName(doc.Name)) {
			continue
		}
		out = append(out, doc.Object())
	}
	m.cache.Add(q, out)
	return out, nil
}

// Filter builds the Meilisearch filter expression of q.
func Filter(q Query) string {
	f := fmt.Sprintf("level = %d", int(q.Level))
	if q.ParentGUID != "" {
		f += fmt.Sprintf(" AND ancestors = %q", q.ParentGUID)
	}
	return f
}

// Configure applies the index settings the lookup relies on.
func (m *MeiliLookup) Configure(ctx context.Context) error {
	task, err := m.client.Index(m.index).UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "translit"},
		FilterableAttributes: []string{"level", "parent_guid", "ancestors", "guid"},
		SortableAttributes:   []string{"level", "name"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
	})
	if err != nil {
		return fmt.Errorf("update index settings: %w", err)
	}
	return m.wait(ctx, task.TaskUID)
}

// Seed indexes docs in batches and waits for the last batch.
func (m *MeiliLookup) Seed(ctx context.Context, docs []Document, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	index := m.client.Index(m.index)
	var last int64 = -1
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		task, err := index.AddDocuments(docs[i:end], "guid")
		if err != nil {
			return fmt.Errorf("add documents %d-%d: %w", i, end, err)
		}
		last = task.TaskUID
		m.logger.Info("Classifier batch queued",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}
	m.cache.Purge()
	if last < 0 {
		return nil
	}
	return m.wait(ctx, last)
}

func (m *MeiliLookup) wait(ctx context.Context, uid int64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		task, err := m.client.GetTask(uid)
		if err != nil {
			return fmt.Errorf("get task %d: %w", uid, err)
		}
		switch task.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("task %d %s: %v", uid, task.Status, task.Error)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func decodeHit(hit interface{}) (Document, error) {
	var doc Document
	raw, err := json.Marshal(hit)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, err
	}
	if doc.GUID == "" {
		return doc, errors.New("document without guid")
	}
	return doc, nil
}

func joinTokens(name string) string {
	return strings.Join(normalizer.Tokenize(name), " ")
}
