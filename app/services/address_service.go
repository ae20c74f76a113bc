package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/catalog"
	"github.com/address-classifier/internal/format"
	"github.com/address-classifier/internal/parser"
	"github.com/address-classifier/internal/splitter"
	"go.uber.org/zap"
)

// ErrEmptyAddress is returned for a request with neither text nor cells.
var ErrEmptyAddress = errors.New("address is empty")

// ParserStats are counters over all parses served.
type ParserStats struct {
	Parsed          int64   `json:"parsed"`
	Unmatched       int64   `json:"unmatched"`
	Truncated       int64   `json:"truncated"`
	CacheHits       int64   `json:"cache_hits"`
	AvgProcessingMs float64 `json:"avg_processing_ms"`
}

// AddressServiceConfig tunes an AddressService.
type AddressServiceConfig struct {
	Format            string
	MaxBranches       int
	ClassifierVersion string
}

// AddressService runs the split, parse, fill and render pipeline.
type AddressService struct {
	parser    *parser.AddressParser
	plain     *parser.AddressParser
	splitter  splitter.Splitter
	comma     splitter.Splitter
	formatter *format.Formatter
	format    format.ParsedFormatString
	cache     ICacheService
	version   string
	logger    *zap.Logger
	startTime time.Time

	parsed    atomic.Int64
	unmatched atomic.Int64
	truncated atomic.Int64
	cacheHits atomic.Int64
	elapsed   atomic.Int64
}

// NewAddressService creates an AddressService. A nil resolver skips
// classifier filling, a nil cache disables caching.
func NewAddressService(cat *catalog.Catalog, sp splitter.Splitter, resolver parser.Resolver, cache ICacheService, cfg AddressServiceConfig, logger *zap.Logger) (*AddressService, error) {
	if cfg.Format == "" {
		cfg.Format = format.AddressSource
	}
	pf, err := format.Parse(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("default format: %w", err)
	}
	if sp == nil {
		sp = splitter.NewCommaSplitter()
	}
	return &AddressService{
		parser: parser.NewAddressParser(cat, parser.Config{
			Resolver:    resolver,
			MaxBranches: cfg.MaxBranches,
		}, logger),
		plain:     parser.NewAddressParser(cat, parser.Config{MaxBranches: cfg.MaxBranches}, logger),
		splitter:  sp,
		comma:     splitter.NewCommaSplitter(),
		formatter: format.NewFormatter(cat),
		format:    pf,
		cache:     cache,
		version:   cfg.ClassifierVersion,
		logger:    logger,
		startTime: time.Now(),
	}, nil
}

// CacheKey identifies a request for caching. Requests that differ only in
// whitespace or letter case share a key.
func (as *AddressService) CacheKey(req requests.ParseAddressRequest, pf format.ParsedFormatString) string {
	var b strings.Builder
	b.WriteString(as.version)
	b.WriteByte('|')
	b.WriteString(pf.String())
	b.WriteByte('|')
	if req.Options.NoFill {
		b.WriteString("nofill|")
	}
	b.WriteString(req.Options.Splitter)
	b.WriteByte('|')
	if len(req.Cells) == 0 {
		b.WriteString(strings.ToLower(strings.Join(strings.Fields(req.Address), " ")))
	}
	for _, c := range req.Cells {
		fmt.Fprintf(&b, "%s#%d;", strings.ToLower(strings.TrimSpace(c.Text)), uint16(c.Levels))
	}
	return b.String()
}

// Parse serves one request. The bool result reports a cache hit.
func (as *AddressService) Parse(ctx context.Context, req requests.ParseAddressRequest) (*models.AddressResult, bool, error) {
	if strings.TrimSpace(req.Address) == "" && len(req.Cells) == 0 {
		return nil, false, ErrEmptyAddress
	}
	pf := as.format
	if req.Options.Format != "" {
		var err error
		if pf, err = format.Parse(req.Options.Format); err != nil {
			return nil, false, err
		}
	}

	key := as.CacheKey(req, pf)
	useCache := as.cache != nil && !req.Options.NoCache
	if useCache {
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache read failed", zap.Error(err))
		} else if found {
			as.cacheHits.Add(1)
			return cached, true, nil
		}
	}

	start := time.Now()
	result, err := as.parse(ctx, req, pf)
	if err != nil {
		return nil, false, err
	}
	result.Fingerprint = Fingerprint(key)
	as.record(result, time.Since(start))

	if useCache {
		if err := as.cache.Set(ctx, key, result); err != nil {
			as.logger.Warn("Cache write failed", zap.Error(err))
		}
	}
	return result, false, nil
}

func (as *AddressService) parse(ctx context.Context, req requests.ParseAddressRequest, pf format.ParsedFormatString) (*models.AddressResult, error) {
	base := &address.StructuredAddress{}
	cells := req.Cells
	if len(cells) == 0 {
		sp := as.splitter
		if req.Options.Splitter == "comma" {
			sp = as.comma
		}
		split := sp.Split(req.Address)
		cells = split.Cells
		base.PostalCode = split.PostalCode
	}

	p := as.parser
	if req.Options.NoFill {
		p = as.plain
	}
	res, err := p.Parse(ctx, cells, base)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", req.Address, err)
	}

	out := models.FromStructured(res.Address)
	out.Raw = req.Address
	out.Formatted = as.formatter.Render(res.Address, pf)
	out.Tail = res.Tail
	out.Matched = res.Matched
	out.Branches = res.Branches
	out.Truncated = res.Truncated
	out.ClassifierVersion = as.version
	out.Status = models.StatusOf(res.Address, res.Tail, res.Matched)
	return &out, nil
}

func (as *AddressService) record(r *models.AddressResult, d time.Duration) {
	as.parsed.Add(1)
	as.elapsed.Add(d.Microseconds())
	if !r.Matched {
		as.unmatched.Add(1)
	}
	if r.Truncated {
		as.truncated.Add(1)
	}
}

// Stats returns the parse counters.
func (as *AddressService) Stats() ParserStats {
	s := ParserStats{
		Parsed:    as.parsed.Load(),
		Unmatched: as.unmatched.Load(),
		Truncated: as.truncated.Load(),
		CacheHits: as.cacheHits.Load(),
	}
	if s.Parsed > 0 {
		s.AvgProcessingMs = float64(as.elapsed.Load()) / float64(s.Parsed) / 1000
	}
	return s
}

// Cache returns the result cache, nil when caching is off.
func (as *AddressService) Cache() ICacheService { return as.cache }

// Version is the classifier version stamped on results.
func (as *AddressService) Version() string { return as.version }

func (as *AddressService) GetStartTime() time.Time { return as.startTime }

// DefaultFormat is the format used when a request names none.
func (as *AddressService) DefaultFormat() format.ParsedFormatString { return as.format }
