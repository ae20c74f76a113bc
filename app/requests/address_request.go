package requests

import "github.com/address-classifier/internal/parser"

// ParseAddressRequest parses one address, either free text or prepared cells.
type ParseAddressRequest struct {
	Address string        `json:"address"`
	Cells   []parser.Cell `json:"cells,omitempty"`
	Options ParseOptions  `json:"options,omitempty"`
}

// ParseOptions tune a parse.
type ParseOptions struct {
	// Format overrides the rendering format string.
	Format   string `json:"format,omitempty"`
	NoCache  bool   `json:"no_cache,omitempty"`
	NoFill   bool   `json:"no_fill,omitempty"`
	Splitter string `json:"splitter,omitempty"`
}

// BatchParseRequest submits a batch job.
type BatchParseRequest struct {
	Addresses []string     `json:"addresses" binding:"required,min=1"`
	Options   ParseOptions `json:"options,omitempty"`
}

// FormatRequest validates or renders a format string.
type FormatRequest struct {
	Format     string            `json:"format" binding:"required"`
	Components map[string]string `json:"components,omitempty"`
	Types      map[string]string `json:"types,omitempty"`
	PostalCode string            `json:"postal_code,omitempty"`
}

// InvalidateCacheRequest drops one cached address, or the whole cache
// when Address is empty.
type InvalidateCacheRequest struct {
	Address string `json:"address,omitempty"`
}

// SeedClassifierRequest rebuilds the search index.
type SeedClassifierRequest struct {
	// Source is "mongo" or "sample".
	Source    string `json:"source" binding:"required,oneof=mongo sample"`
	BatchSize int    `json:"batch_size,omitempty"`
}
