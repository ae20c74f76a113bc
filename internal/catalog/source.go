package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Source provides classifier type entries (the socrbase table).
type Source interface {
	Name() string
	LoadAOTypes(ctx context.Context) ([]Entry, error)
}

// EmbeddedSource serves the classifier table shipped in the binary.
type EmbeddedSource struct {
	Rules *Rules
}

func (s EmbeddedSource) Name() string { return "embedded" }

func (s EmbeddedSource) LoadAOTypes(context.Context) ([]Entry, error) {
	if s.Rules == nil {
		return nil, fmt.Errorf("embedded source: no rules loaded")
	}
	return append([]Entry(nil), s.Rules.Classifier...), nil
}

// Load merges the entries of every source, in order, into a new catalog.
// A failing source aborts the load.
func Load(ctx context.Context, rules *Rules, logger *zap.Logger, sources ...Source) (*Catalog, error) {
	var all []Entry
	for _, src := range sources {
		entries, err := src.LoadAOTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("load types from %s: %w", src.Name(), err)
		}
		logger.Info("Loaded address object types",
			zap.String("source", src.Name()),
			zap.Int("count", len(entries)))
		all = append(all, entries...)
	}
	return New(all, rules), nil
}
