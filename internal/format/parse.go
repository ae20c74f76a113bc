// Package format compiles address format strings and renders structured
// addresses with them.
//
// A format string is a sequence of component references separated by
// literal separators:
//
//	CITY.ABBR CITY.NAME, {"ул. " STREET.NAME}", " HOUSE
//
// A reference is a bare dotted keyword or a brace group holding an optional
// quoted prefix, the keyword and an optional quoted suffix. A brace group
// with a single quoted literal and no keyword is a constant item. Quoted
// literals use "" for an embedded quote.
package format

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/address-classifier/internal/address"
)

// SyntaxError describes an invalid format string. Offset and Length are
// counted in runes so that a caret can be placed under the token.
type SyntaxError struct {
	Msg    string
	Offset int
	Length int
	Token  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("format: %s at position %d: %q", e.Msg, e.Offset, e.Token)
}

// Caret returns the format string with a marker line under the bad token.
func (e *SyntaxError) Caret(format string) string {
	n := e.Length
	if n < 1 {
		n = 1
	}
	return format + "\n" + strings.Repeat(" ", e.Offset) + "^" + strings.Repeat("~", n-1)
}

// Item is one element of a parsed format string. Constant items carry only
// Literal; the others carry a component and its optional decorations.
type Item struct {
	Separator string        `json:"separator,omitempty"`
	Prefix    string        `json:"prefix,omitempty"`
	Component ComponentType `json:"-"`
	Suffix    string        `json:"suffix,omitempty"`
	Literal   string        `json:"literal,omitempty"`
}

// IsConstant reports whether the item is a pure literal.
func (it Item) IsConstant() bool { return it.Component.IsZero() }

// ParsedFormatString is an immutable compiled format.
type ParsedFormatString struct {
	items  []Item
	source string
}

// Items returns a copy of the items in order.
func (p ParsedFormatString) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

func (p ParsedFormatString) Len() int       { return len(p.items) }
func (p ParsedFormatString) String() string { return p.source }

type tokenKind uint8

const (
	tokLiteral tokenKind = iota + 1
	tokOpen
	tokClose
	tokKeyword
	tokSeparator
)

type token struct {
	kind   tokenKind
	text   string
	value  string
	offset int
	length int
}

func (t token) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: t.offset, Length: t.length, Token: t.text}
}

// Parse compiles a format string.
func Parse(format string) (ParsedFormatString, error) {
	toks, err := lex(format)
	if err != nil {
		return ParsedFormatString{}, err
	}

	var items []Item
	var sep separator
	for i := 0; i < len(toks); {
		t := toks[i]
		switch t.kind {
		case tokSeparator, tokLiteral:
			if len(items) == 0 && !(t.kind == tokSeparator && isBlank(t.text)) {
				return ParsedFormatString{}, t.errorf("separator before first component")
			}
			if len(items) > 0 {
				sep.add(t)
			}
			i++
		case tokKeyword:
			ct, err := componentOf(t)
			if err != nil {
				return ParsedFormatString{}, err
			}
			items = append(items, Item{Separator: sep.String(), Component: ct})
			sep = separator{}
			i++
		case tokOpen:
			item, next, err := group(toks, i)
			if err != nil {
				return ParsedFormatString{}, err
			}
			item.Separator = sep.String()
			items = append(items, item)
			sep = separator{}
			i = next
		case tokClose:
			return ParsedFormatString{}, t.errorf("unmatched closing brace")
		}
	}
	if sep.significant() {
		return ParsedFormatString{}, sep.first.errorf("separator after last component")
	}
	return ParsedFormatString{items: items, source: format}, nil
}

// MustParse is Parse for formats known to be valid. A failure is a defect.
func MustParse(format string) ParsedFormatString {
	p, err := Parse(format)
	if err != nil {
		address.Defect("%v", err)
	}
	return p
}

// group parses the brace group opened at toks[open] and returns the index
// after its closing brace.
func group(toks []token, open int) (Item, int, error) {
	var prefix, keyword, suffix *token
	for j := open + 1; j < len(toks); j++ {
		t := toks[j]
		switch t.kind {
		case tokOpen:
			return Item{}, 0, t.errorf("nested braces")
		case tokSeparator:
			if !isBlank(t.text) {
				return Item{}, 0, t.errorf("unquoted text inside braces")
			}
		case tokLiteral:
			switch {
			case keyword == nil && prefix != nil:
				return Item{}, 0, t.errorf("two consecutive prefixes")
			case keyword == nil:
				prefix = &toks[j]
			case suffix != nil:
				return Item{}, 0, t.errorf("two consecutive suffixes")
			default:
				suffix = &toks[j]
			}
		case tokKeyword:
			if keyword != nil {
				return Item{}, 0, t.errorf("more than one component type in braces")
			}
			keyword = &toks[j]
		case tokClose:
			if keyword == nil {
				if prefix == nil {
					o := toks[open]
					return Item{}, 0, &SyntaxError{
						Msg:    "no component type in braces",
						Offset: o.offset,
						Length: t.offset + t.length - o.offset,
						Token:  "{}",
					}
				}
				return Item{Literal: prefix.value}, j + 1, nil
			}
			ct, err := componentOf(*keyword)
			if err != nil {
				return Item{}, 0, err
			}
			item := Item{Component: ct}
			if prefix != nil {
				item.Prefix = prefix.value
			}
			if suffix != nil {
				item.Suffix = suffix.value
			}
			return item, j + 1, nil
		}
	}
	return Item{}, 0, toks[open].errorf("unclosed brace")
}

func componentOf(t token) (ComponentType, error) {
	kw := t.text
	if strings.HasPrefix(kw, ".") || strings.HasSuffix(kw, ".") || strings.Contains(kw, "..") {
		return ComponentType{}, t.errorf("misplaced dot in component type")
	}
	ct, ok := ParseComponentType(kw)
	if !ok {
		return ComponentType{}, t.errorf("unknown component type")
	}
	return ct, nil
}

// separator accumulates the tokens between two components. Spaces around
// quoted literals are not part of the separator.
type separator struct {
	first  token
	pieces []token
	quoted bool
}

func (s *separator) add(t token) {
	if len(s.pieces) == 0 {
		s.first = t
	}
	s.pieces = append(s.pieces, t)
	if t.kind == tokLiteral {
		s.quoted = true
	}
}

func (s *separator) significant() bool {
	for _, t := range s.pieces {
		if t.kind == tokLiteral || !isBlank(t.text) {
			return true
		}
	}
	return false
}

func (s *separator) String() string {
	var b strings.Builder
	for _, t := range s.pieces {
		switch {
		case t.kind == tokLiteral:
			b.WriteString(t.value)
		case s.quoted:
			b.WriteString(strings.TrimSpace(t.text))
		default:
			b.WriteString(t.text)
		}
	}
	return b.String()
}

func lex(format string) ([]token, error) {
	rs := []rune(format)
	var toks []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '{':
			toks = append(toks, token{kind: tokOpen, text: "{", offset: i, length: 1})
			i++
		case r == '}':
			toks = append(toks, token{kind: tokClose, text: "}", offset: i, length: 1})
			i++
		case r == '"':
			var b strings.Builder
			j, closed := i+1, false
			for j < len(rs) {
				if rs[j] == '"' {
					if j+1 < len(rs) && rs[j+1] == '"' {
						b.WriteRune('"')
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				b.WriteRune(rs[j])
				j++
			}
			text := string(rs[i:j])
			if !closed {
				return nil, &SyntaxError{Msg: "unterminated literal", Offset: i, Length: j - i, Token: text}
			}
			toks = append(toks, token{kind: tokLiteral, text: text, value: b.String(), offset: i, length: j - i})
			i = j
		case isKeywordStart(r):
			j := i + 1
			for j < len(rs) && isKeywordRune(rs[j]) {
				j++
			}
			toks = append(toks, token{kind: tokKeyword, text: string(rs[i:j]), offset: i, length: j - i})
			i = j
		case isSeparatorRune(r):
			j := i + 1
			for j < len(rs) && isSeparatorRune(rs[j]) {
				j++
			}
			toks = append(toks, token{kind: tokSeparator, text: string(rs[i:j]), offset: i, length: j - i})
			i = j
		default:
			return nil, &SyntaxError{Msg: "unexpected character", Offset: i, Length: 1, Token: string(r)}
		}
	}
	return toks, nil
}

func isKeywordStart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isKeywordRune(r rune) bool {
	return isKeywordStart(r) || r == '.'
}

func isSeparatorRune(r rune) bool {
	switch r {
	case ' ', '\t', '.', '-', ',', ';', '/':
		return true
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
