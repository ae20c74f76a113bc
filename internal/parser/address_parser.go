package parser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/address-classifier/internal/address"
	"go.uber.org/zap"
)

// DefaultMaxBranches bounds the number of AddPart steps of one Parse call.
const DefaultMaxBranches = 20000

// Cell is one input fragment and the levels its content may fill.
type Cell struct {
	Text   string           `json:"text"`
	Levels address.LevelSet `json:"levels"`
}

// TypeCatalog is the part of the address object type catalog the parser needs.
type TypeCatalog interface {
	IsValidAOType(level address.Level, text string) (bool, string, int)
	GetAOTypeLevels(text string) address.LevelSet
	GetMaxSpaceCount(level address.Level) int
	TypePrecedes(level address.Level) bool
	TypeFollows(level address.Level) bool
}

// Resolver attaches classifier identifiers to a finished candidate so that
// candidates can be ranked by whether their deepest level exists.
type Resolver interface {
	Fill(ctx context.Context, addr *address.StructuredAddress) error
}

// Config holds the parser collaborators. Nil fields get defaults.
type Config struct {
	Validity    address.NameValidity
	Hierarchy   address.HierarchyRules
	Resolver    Resolver
	MaxBranches int
}

// Result is the outcome of Parse.
type Result struct {
	Address   *address.StructuredAddress
	Tail      string
	Matched   bool
	Branches  int
	Truncated bool
}

// AddressParser turns text cells into a structured address by exploring
// every plausible split and keeping the best candidate.
type AddressParser struct {
	catalog  TypeCatalog
	validity address.NameValidity
	rules    address.HierarchyRules
	resolver Resolver
	maxSteps int
	logger   *zap.Logger

	spaceRun     *regexp.Regexp
	dashRun      *regexp.Regexp
	spacedDash   *regexp.Regexp
	spacedNumber *regexp.Regexp
	gluedNumber  *regexp.Regexp
}

// NewAddressParser creates an AddressParser.
func NewAddressParser(catalog TypeCatalog, cfg Config, logger *zap.Logger) *AddressParser {
	if cfg.Validity == nil {
		cfg.Validity = address.DefaultNameRules()
	}
	if cfg.Hierarchy == nil {
		cfg.Hierarchy = address.DefaultHierarchy{}
	}
	if cfg.MaxBranches <= 0 {
		cfg.MaxBranches = DefaultMaxBranches
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressParser{
		catalog:  catalog,
		validity: cfg.Validity,
		rules:    cfg.Hierarchy,
		resolver: cfg.Resolver,
		maxSteps: cfg.MaxBranches,
		logger:   logger,

		spaceRun:     regexp.MustCompile(`\s+`),
		dashRun:      regexp.MustCompile(`-{2,}`),
		spacedDash:   regexp.MustCompile(` ?- ?`),
		spacedNumber: regexp.MustCompile(`^(\d+) (\p{L}+)$`),
		gluedNumber:  regexp.MustCompile(`^(\p{L}+)(\d+\p{L}*)(.*)$`),
	}
}

var errBudget = errors.New("branch budget exhausted")

// Parse explores the cells starting from base and returns the best address.
// When nothing parses the result holds a copy of base and Matched is false.
func (ap *AddressParser) Parse(ctx context.Context, cells []Cell, base *address.StructuredAddress) (*Result, error) {
	start := time.Now()
	if base == nil {
		base = &address.StructuredAddress{}
	}

	s := &search{
		parser: ap,
		ctx:    ctx,
		cells:  make([]Cell, len(cells)),
	}
	for i, c := range cells {
		s.cells[i] = Cell{Text: ap.Preprocess(c.Text), Levels: c.Levels}
	}

	err := s.addNextPart(base.Clone(), 0, tailState{})
	switch {
	case errors.Is(err, errBudget):
		s.truncated = true
		ap.logger.Warn("Address search stopped by branch budget",
			zap.Int("max_branches", ap.maxSteps),
			zap.Int("cells", len(cells)))
	case err != nil:
		return nil, err
	}

	result := &Result{Branches: s.steps, Truncated: s.truncated}
	if s.best == nil || s.accepted == 0 {
		result.Address = base.Clone()
		ap.logger.Debug("No candidate parsed", zap.Int("cells", len(cells)), zap.Int("branches", s.steps))
		return result, nil
	}

	best := s.best
	result.Address = best.addr
	result.Tail = best.tail
	result.Matched = true
	if best.tail != "" {
		level := best.tailLevel
		if !level.Valid() {
			level = best.addr.DeepestLevel()
		}
		best.addr.AddMessage(level, address.SeverityError,
			"remaining text %q does not fit any known level", best.tail)
	}

	ap.logger.Debug("Address parsed",
		zap.String("address", best.addr.String()),
		zap.String("tail", best.tail),
		zap.Int("branches", s.steps),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Preprocess collapses repeated spaces and dashes and glues dashes to words.
func (ap *AddressParser) Preprocess(text string) string {
	text = ap.spaceRun.ReplaceAllString(text, " ")
	text = ap.dashRun.ReplaceAllString(text, "-")
	text = ap.spacedDash.ReplaceAllString(text, "-")
	return strings.TrimSpace(text)
}

type tailState struct {
	text  string
	level address.Level
}

type candidate struct {
	addr      *address.StructuredAddress
	tail      string
	tailLevel address.Level
}

// search is the state of one Parse call. Every branch owns its address.
type search struct {
	parser    *AddressParser
	ctx       context.Context
	cells     []Cell
	best      *candidate
	steps     int
	accepted  int
	truncated bool
}

func (s *search) step() error {
	s.steps++
	if s.steps > s.parser.maxSteps {
		return errBudget
	}
	if s.steps%256 == 0 {
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// addNextPart continues with the cell after the current one.
func (s *search) addNextPart(addr *address.StructuredAddress, next int, tail tailState) error {
	if next >= len(s.cells) {
		return s.terminal(addr, tail)
	}
	c := s.cells[next]
	return s.addPart(addr, next, c.Text, c.Levels, tail)
}

// addPart consumes text of cell at one of levels, branching for every
// accepted split. Text no level accepts is committed to the tail.
func (s *search) addPart(addr *address.StructuredAddress, cell int, text string, levels address.LevelSet, tail tailState) error {
	if err := s.step(); err != nil {
		return err
	}
	text = strings.Trim(text, " ,;")
	if text == "" {
		return s.addNextPart(addr, cell+1, tail)
	}

	prev := addr.DeepestLevel()
	branched := false
	for _, level := range levels.Levels() {
		if !s.parser.rules.IsInheritableLevel(prev, level, false) {
			continue
		}
		base := addr.Clone()
		base.ClearFromLevel(level)
		n, err := s.splitLevel(base, cell, text, level, levels, tail)
		if err != nil {
			return err
		}
		if n > 0 {
			branched = true
		}
	}
	if branched {
		return nil
	}

	if tail.text == "" {
		tail.level = levels.Top()
		if tail.level == address.LevelUnknown {
			tail.level = prev
		}
	}
	tail.text = joinSpace(tail.text, text)
	return s.addNextPart(addr, cell+1, tail)
}

func (s *search) terminal(addr *address.StructuredAddress, tail tailState) error {
	if addr.IsEmpty() {
		return nil
	}
	addr = addr.Clone()
	if s.parser.resolver != nil {
		if err := s.parser.resolver.Fill(s.ctx, addr); err != nil {
			return fmt.Errorf("resolve candidate %q: %w", addr.String(), err)
		}
	}
	c := &candidate{addr: addr, tail: tail.text, tailLevel: tail.level}
	if s.best == nil || better(c, s.best) {
		s.best = c
	}
	return nil
}
