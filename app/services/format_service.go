package services

import (
	"fmt"
	"strings"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/catalog"
	"github.com/address-classifier/internal/format"
)

// TypeMatch is a catalog hit for a type name at one level.
type TypeMatch struct {
	Level        string `json:"level"`
	Type         string `json:"type"`
	Abbreviation string `json:"abbreviation"`
	ID           int    `json:"id"`
}

// FormatService compiles and renders format strings and answers catalog
// type lookups.
type FormatService struct {
	catalog   *catalog.Catalog
	formatter *format.Formatter
}

// NewFormatService creates a FormatService.
func NewFormatService(cat *catalog.Catalog) *FormatService {
	return &FormatService{catalog: cat, formatter: format.NewFormatter(cat)}
}

// Validate compiles src. Syntax errors are *format.SyntaxError.
func (fs *FormatService) Validate(src string) (format.ParsedFormatString, error) {
	return format.Parse(src)
}

// Render builds an address from level keyword maps and renders it.
func (fs *FormatService) Render(src string, names, types map[string]string, postalCode string) (string, error) {
	addr := &address.StructuredAddress{PostalCode: postalCode}
	for key, name := range names {
		l, err := address.ParseLevel(key)
		if err != nil {
			return "", fmt.Errorf("component %q: %w", key, err)
		}
		addr.SetName(l, strings.TrimSpace(name))
	}
	for key, typ := range types {
		l, err := address.ParseLevel(key)
		if err != nil {
			return "", fmt.Errorf("type %q: %w", key, err)
		}
		addr.SetType(l, strings.TrimSpace(typ))
	}
	return fs.formatter.RenderString(addr, src)
}

// LookupTypes lists the levels at which text is a known type, shallowest first.
func (fs *FormatService) LookupTypes(text string) []TypeMatch {
	matches := []TypeMatch{}
	for _, l := range fs.catalog.GetAOTypeLevels(text).Levels() {
		ok, full, id := fs.catalog.IsValidAOType(l, text)
		if !ok {
			continue
		}
		matches = append(matches, TypeMatch{
			Level:        l.String(),
			Type:         full,
			Abbreviation: fs.catalog.Abbreviation(l, full),
			ID:           id,
		})
	}
	return matches
}
