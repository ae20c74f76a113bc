package classifier

import (
	"context"
	"fmt"

	"github.com/address-classifier/internal/address"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// FillerConfig selects the levels the classifier tracks and the size of the
// lookup cache shared by all Fill calls.
type FillerConfig struct {
	Tracked   address.LevelSet
	CacheSize int
}

// DefaultFillerConfig tracks the address object levels.
func DefaultFillerConfig() FillerConfig {
	return FillerConfig{Tracked: address.AddressObjectLevels, CacheSize: 4096}
}

// Filler resolves every named, tracked level of an address top-down: each
// lookup is scoped by the nearest resolved ancestor.
type Filler struct {
	lookup  Lookup
	ranker  *Ranker
	tracked address.LevelSet
	cache   *lru.Cache[Query, []Object]
	logger  *zap.Logger
}

// NewFiller creates a Filler.
func NewFiller(lookup Lookup, cfg FillerConfig, logger *zap.Logger) (*Filler, error) {
	if lookup == nil {
		return nil, ErrNoLookup
	}
	if cfg.Tracked.IsEmpty() {
		cfg.Tracked = address.AddressObjectLevels
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[Query, []Object](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create lookup cache: %w", err)
	}
	return &Filler{
		lookup:  lookup,
		ranker:  NewRanker(),
		tracked: cfg.Tracked,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Fill sets GUIDs, record ids, codes and the postal code on addr. Levels
// already carrying a GUID are trusted. An unknown name gets a Warning, an
// ambiguous one an Info. Lookup failures are returned.
func (f *Filler) Fill(ctx context.Context, addr *address.StructuredAddress) error {
	parent := ""
	givenPostal := addr.PostalCode != ""
	for _, level := range addr.Levels().Levels() {
		if g := addr.GUID(level); g != "" {
			parent = g
			continue
		}
		if !f.tracked.Contains(level) {
			continue
		}

		q := Query{Level: level, Name: addr.Name(level), Type: addr.Type(level), ParentGUID: parent}
		found, err := f.find(ctx, q)
		if err != nil {
			return fmt.Errorf("classifier lookup %s %q: %w", level, q.Name, err)
		}

		switch len(found) {
		case 0:
			addr.AddMessage(level, address.SeverityWarning, "%q is not found in the classifier", q.Name)
			continue
		case 1:
			f.apply(addr, found[0], givenPostal)
		default:
			ranked := f.ranker.Rank(q.Name, found)
			f.apply(addr, ranked[0].Object, givenPostal)
			if ranked[0].Score <= ranked[1].Score {
				addr.AddMessage(level, address.SeverityInfo, "%q is ambiguous: %d classifier objects match", q.Name, len(found))
			}
		}
		parent = addr.GUID(level)
	}
	return nil
}

func (f *Filler) find(ctx context.Context, q Query) ([]Object, error) {
	if hit, ok := f.cache.Get(q); ok {
		return hit, nil
	}
	found, err := f.lookup.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	f.cache.Add(q, found)
	return found, nil
}

// apply copies the identifiers of o. A postal code the caller supplied is
// kept; otherwise the deepest resolved object's code wins.
func (f *Filler) apply(addr *address.StructuredAddress, o Object, keepPostal bool) {
	addr.SetGUID(o.Level, o.GUID)
	addr.SetRecordID(o.Level, o.RecordID)
	if o.PostalCode != "" && !keepPostal {
		addr.PostalCode = o.PostalCode
	}
	c := &addr.Codes
	setIf(&c.RegionCode, o.Codes.RegionCode)
	setIf(&c.OKATO, o.Codes.OKATO)
	setIf(&c.OKTMO, o.Codes.OKTMO)
	setIf(&c.IFNSFL, o.Codes.IFNSFL)
	setIf(&c.IFNSUL, o.Codes.IFNSUL)
}

// Purge drops cached lookups, e.g. after the classifier was reloaded.
func (f *Filler) Purge() {
	f.cache.Purge()
	f.logger.Info("Classifier lookup cache purged")
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
