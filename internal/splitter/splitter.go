// Package splitter turns a one-line address into parser cells.
package splitter

import (
	"regexp"
	"strings"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/normalizer"
	"github.com/address-classifier/internal/parser"
	"go.uber.org/zap"
)

// Result is a split address.
type Result struct {
	PostalCode string
	Cells      []parser.Cell
}

// Splitter splits free-form text.
type Splitter interface {
	Name() string
	Split(text string) Result
}

var countryWords = map[string]struct{}{
	"россия":                {},
	"рф":                    {},
	"российская федерация": {},
	"russia":                {},
}

// CommaSplitter cuts the text at commas and semicolons. Every segment may
// fill any level; the parser's hierarchy rules order them.
type CommaSplitter struct {
	postal *regexp.Regexp
}

// NewCommaSplitter creates a CommaSplitter.
func NewCommaSplitter() *CommaSplitter {
	return &CommaSplitter{postal: regexp.MustCompile(`^\d{6}$`)}
}

func (s *CommaSplitter) Name() string { return "comma" }

// Split drops country names and takes a six digit segment as the postal code.
func (s *CommaSplitter) Split(text string) Result {
	var res Result
	text = normalizer.Clean(text)
	for _, seg := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' }) {
		seg = strings.TrimSpace(seg)
		switch {
		case seg == "":
			continue
		case res.PostalCode == "" && s.postal.MatchString(seg):
			res.PostalCode = seg
			continue
		}
		if _, ok := countryWords[strings.ToLower(seg)]; ok {
			continue
		}
		res.Cells = append(res.Cells, parser.Cell{Text: seg, Levels: address.AllLevelSet})
	}
	return res
}

// New returns the libpostal splitter when requested and compiled in, and
// the comma splitter otherwise.
func New(useLibpostal bool, logger *zap.Logger) Splitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if useLibpostal {
		if s := newLibpostal(logger); s != nil {
			return s
		}
		logger.Warn("libpostal requested but not compiled in, using comma splitter")
	}
	return NewCommaSplitter()
}
