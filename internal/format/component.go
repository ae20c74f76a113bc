package format

import (
	"strings"

	"github.com/address-classifier/internal/address"
)

// Kind is what a component reference renders.
type Kind uint8

const (
	KindNone Kind = iota
	// Per-level kinds.
	KindFull
	KindName
	KindType
	KindAbbr
	KindGUID
	KindRecID
	KindNum
	KindThrough
	// Global kinds, Level is Unknown.
	KindText
	KindPostalCode
	KindRegionCode
	KindAOGUID
	KindAnyGUID
	KindOKATO
	KindOKTMO
	KindIFNSFL
	KindIFNSUL
)

var levelSuffixes = map[string]Kind{
	"NAME":  KindName,
	"TYPE":  KindType,
	"ABBR":  KindAbbr,
	"GUID":  KindGUID,
	"RECID": KindRecID,
	"NUM":   KindNum,
}

var globals = map[string]Kind{
	"TEXT":       KindText,
	"POSTALCODE": KindPostalCode,
	"REGIONCODE": KindRegionCode,
	"AO.GUID":    KindAOGUID,
	"ANY.GUID":   KindAnyGUID,
	"OKATO":      KindOKATO,
	"OKTMO":      KindOKTMO,
	"IFNSFL":     KindIFNSFL,
	"IFNSUL":     KindIFNSUL,
}

// ComponentType names one renderable value of an address.
type ComponentType struct {
	Kind  Kind
	Level address.Level
}

// IsZero reports whether c refers to nothing (a constant item).
func (c ComponentType) IsZero() bool { return c.Kind == KindNone }

// IsGlobal reports whether c is not bound to a level.
func (c ComponentType) IsGlobal() bool { return c.Kind >= KindText }

// String returns the keyword that parses back into c.
func (c ComponentType) String() string {
	switch c.Kind {
	case KindNone:
		return ""
	case KindFull:
		return c.Level.String()
	case KindThrough:
		return "AT." + c.Level.String()
	}
	for kw, k := range levelSuffixes {
		if k == c.Kind {
			return c.Level.String() + "." + kw
		}
	}
	for kw, k := range globals {
		if k == c.Kind {
			return kw
		}
	}
	address.Defect("format: component kind %d has no keyword", c.Kind)
	return ""
}

// ParseComponentType resolves a dotted upper-case keyword.
func ParseComponentType(keyword string) (ComponentType, bool) {
	if k, ok := globals[keyword]; ok {
		return ComponentType{Kind: k}, true
	}
	head, tail, dotted := strings.Cut(keyword, ".")
	if head == "AT" && dotted {
		l, err := address.ParseLevel(tail)
		if err != nil || strings.ToUpper(tail) != tail {
			return ComponentType{}, false
		}
		return ComponentType{Kind: KindThrough, Level: l}, true
	}
	if strings.ToUpper(head) != head {
		return ComponentType{}, false
	}
	l, err := address.ParseLevel(head)
	if err != nil {
		return ComponentType{}, false
	}
	if !dotted {
		return ComponentType{Kind: KindFull, Level: l}, true
	}
	k, ok := levelSuffixes[tail]
	if !ok || k == KindNum && !l.IsHouseLevel() {
		return ComponentType{}, false
	}
	return ComponentType{Kind: k, Level: l}, true
}
