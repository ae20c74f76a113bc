package format

import (
	"strconv"
	"strings"

	"github.com/address-classifier/internal/address"
)

// Abbreviator supplies display abbreviations of type names.
type Abbreviator interface {
	Abbreviation(level address.Level, full string) string
	IsAbbreviationDotRequired(abbr string, level address.Level) bool
}

// Formatter renders structured addresses.
type Formatter struct {
	abbr Abbreviator
}

// NewFormatter creates a Formatter. With a nil Abbreviator ABBR renders the
// full type name.
func NewFormatter(abbr Abbreviator) *Formatter {
	return &Formatter{abbr: abbr}
}

// Render writes addr using pf. Separators, prefixes and suffixes only
// appear around non-empty values.
func (f *Formatter) Render(addr *address.StructuredAddress, pf ParsedFormatString) string {
	var b strings.Builder
	emitted := false
	for _, it := range pf.items {
		var v string
		if it.IsConstant() {
			v = it.Literal
		} else if v = f.Value(addr, it.Component); v != "" {
			v = it.Prefix + v + it.Suffix
		}
		if v == "" {
			continue
		}
		if emitted {
			b.WriteString(it.Separator)
		}
		b.WriteString(v)
		emitted = true
	}
	return b.String()
}

// RenderString compiles format and renders addr with it.
func (f *Formatter) RenderString(addr *address.StructuredAddress, format string) (string, error) {
	pf, err := Parse(format)
	if err != nil {
		return "", err
	}
	return f.Render(addr, pf), nil
}

// Value renders a single component. Missing data gives "".
func (f *Formatter) Value(addr *address.StructuredAddress, ct ComponentType) string {
	l := ct.Level
	switch ct.Kind {
	case KindFull:
		return f.Render(addr, Default(l))
	case KindName:
		return addr.Name(l)
	case KindType:
		return addr.Type(l)
	case KindAbbr:
		return f.abbreviate(l, addr.Type(l))
	case KindGUID:
		return addr.GUID(l)
	case KindRecID:
		if id := addr.Component(l).RecordID; id != 0 {
			return strconv.FormatInt(id, 10)
		}
		return ""
	case KindNum:
		return strings.ToUpper(addr.Name(l))
	case KindThrough:
		parts := make([]string, 0, l)
		for _, lv := range address.LevelRange(address.LevelRegion, l).Levels() {
			if v := f.Render(addr, Default(lv)); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	case KindText:
		return f.Render(addr, DefaultAddress())
	case KindPostalCode:
		return addr.PostalCode
	case KindRegionCode:
		return addr.Codes.RegionCode
	case KindAOGUID:
		return deepestGUID(addr, address.LevelStreet)
	case KindAnyGUID:
		return deepestGUID(addr, address.MaxLevel)
	case KindOKATO:
		return addr.Codes.OKATO
	case KindOKTMO:
		return addr.Codes.OKTMO
	case KindIFNSFL:
		return addr.Codes.IFNSFL
	case KindIFNSUL:
		return addr.Codes.IFNSUL
	}
	address.Defect("format: cannot render component kind %d", ct.Kind)
	return ""
}

func (f *Formatter) abbreviate(l address.Level, typ string) string {
	if typ == "" || f.abbr == nil {
		return typ
	}
	abbr := f.abbr.Abbreviation(l, typ)
	if abbr == "" {
		return typ
	}
	if f.abbr.IsAbbreviationDotRequired(abbr, l) && !strings.HasSuffix(abbr, ".") {
		abbr += "."
	}
	return abbr
}

func deepestGUID(addr *address.StructuredAddress, from address.Level) string {
	for l := from; l >= address.LevelRegion; l-- {
		if g := addr.GUID(l); g != "" {
			return g
		}
	}
	return ""
}
