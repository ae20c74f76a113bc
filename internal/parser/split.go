package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/address-classifier/internal/address"
)

// split is one (type, name, remainder) hypothesis for a level.
type split struct {
	typ        string
	name       string
	rest       string
	restLevels address.LevelSet
	note       string
}

// splitLevel tries every way to read text at level and branches on each
// accepted split. It returns the number of branches taken.
func (s *search) splitLevel(base *address.StructuredAddress, cell int, text string, level address.Level, levels address.LevelSet, tail tailState) (int, error) {
	cat := s.parser.catalog
	seg, commaRest, _ := strings.Cut(text, ",")
	seg = strings.TrimSpace(seg)
	commaRest = strings.TrimSpace(commaRest)

	var splits []split
	typed := false
	addTyped := func(typText, name, rest string) {
		ok, full, _ := cat.IsValidAOType(level, typText)
		if !ok {
			return
		}
		typed = true
		splits = append(splits, s.parser.nameVariants(level, full, name, rest, levels)...)
	}

	// 1. "п.Иваново", "г. Москва": type ends with the first dot.
	if cat.TypePrecedes(level) {
		if dot := strings.IndexByte(seg, '.'); dot > 0 {
			if sp := strings.IndexByte(seg, ' '); sp < 0 || dot < sp {
				addTyped(seg[:dot+1], seg[dot+1:], commaRest)
			}
		}
	}

	// 2 and 3. Multi-word types before or after the name.
	spaces := spaceIndexes(seg)
	n := min(len(spaces), cat.GetMaxSpaceCount(level)+1)
	if cat.TypePrecedes(level) {
		for i := 0; i < n; i++ {
			addTyped(seg[:spaces[i]], seg[spaces[i]+1:], commaRest)
		}
	}
	if cat.TypeFollows(level) {
		for i := 0; i < n; i++ {
			pos := spaces[len(spaces)-1-i]
			addTyped(seg[pos+1:], seg[:pos], commaRest)
		}
	}

	// 4. No type at all. Regions are often written bare.
	if (!typed || level == address.LevelRegion) && !s.parser.framedByType(level, seg) {
		splits = append(splits, s.parser.nameVariants(level, "", seg, commaRest, levels)...)
	}

	// 6. "дом15", "кв3а": type glued to the number.
	if level.IsHouseLevel() {
		if m := s.parser.gluedNumber.FindStringSubmatch(seg); m != nil {
			if ok, full, _ := cat.IsValidAOType(level, m[1]); ok {
				splits = append(splits, s.parser.nameVariants(level, full, m[2], joinComma(m[3], commaRest), levels)...)
			}
		}
	}

	seen := make(map[split]struct{}, len(splits))
	branches := 0
	for _, sp := range splits {
		if level.IsHouseLevel() {
			sp.name = stripNumberMark(sp.name)
		}
		sp.name = strings.TrimSpace(sp.name)
		if !s.parser.validity.IsValidName(sp.name, level) {
			continue
		}
		if _, dup := seen[sp]; dup {
			continue
		}
		seen[sp] = struct{}{}

		branch := base.Clone()
		branch.SetName(level, sp.name)
		branch.SetType(level, sp.typ)
		if sp.typ == "" && level != address.LevelRegion {
			branch.AddMessage(level, address.SeverityInfo, "type of %q is not specified", sp.name)
		}
		if sp.note != "" {
			branch.AddMessage(level, address.SeverityInfo, "%s", sp.note)
		}
		branches++
		s.accepted++
		if err := s.addPart(branch, cell, sp.rest, sp.restLevels, tail); err != nil {
			return branches, err
		}
	}
	return branches, nil
}

// nameVariants expands a name candidate into the names the parser should try:
// the house number repairs (steps 5 and 7), single-word house numbers, cuts
// before an inner type word of a deeper level, and separator splits.
func (ap *AddressParser) nameVariants(level address.Level, typ, name, rest string, levels address.LevelSet) []split {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	below := levels.Below(level)
	var primary []split

	if level.IsHouseLevel() {
		name = stripNumberMark(name)
		// 5. "15 а" is house "15а".
		if level == address.LevelHouse {
			if m := ap.spacedNumber.FindStringSubmatch(name); m != nil {
				primary = append(primary, split{typ: typ, name: m[1] + m[2], rest: rest, restLevels: below})
			}
		}
		word, after, _ := strings.Cut(name, " ")
		primary = append(primary, split{typ: typ, name: word, rest: joinComma(after, rest), restLevels: below})
	} else {
		whole := split{typ: typ, name: name, rest: rest, restLevels: below}
		if !below.IsEmpty() {
			for _, pos := range spaceIndexes(name) {
				word := typeWordPrefix(name[pos+1:])
				if word == "" || ap.catalog.GetAOTypeLevels(word)&below == 0 {
					continue
				}
				primary = append(primary, split{typ: typ, name: name[:pos], rest: joinComma(name[pos+1:], rest), restLevels: below})
				if whole.note == "" {
					whole.note = "name contains type word " + strings.TrimSuffix(word, ".")
				}
			}
		}
		primary = append([]split{whole}, primary...)
	}

	out := primary
	joinExtra := joinComma
	if level.IsHouseLevel() {
		joinExtra = joinSpace
	}
	sameOrBelow := levels.AtOrBelow(level)
	for _, p := range primary {
		// 7. Left part is the name, right part is re-parsed at the same or a deeper level.
		for i := 0; i < len(p.name); i++ {
			switch p.name[i] {
			case '-', '/', '\\':
				left, right := p.name[:i], p.name[i+1:]
				if left == "" || right == "" {
					continue
				}
				out = append(out, split{typ: typ, name: left, rest: joinExtra(right, p.rest), restLevels: sameOrBelow})
			}
		}
		switch level {
		case address.LevelHouse, address.LevelBuilding, address.LevelFlat:
			if at, ok := singleTransition(p.name); ok {
				out = append(out, split{typ: typ, name: p.name[:at], rest: joinSpace(p.name[at:], p.rest), restLevels: sameOrBelow})
			}
		}
	}
	return out
}

// framedByType reports whether an object name opens or ends with a known type
// word, as "ул.Тверская" or "Тверская ул." read without any type.
func (ap *AddressParser) framedByType(level address.Level, seg string) bool {
	if level.IsHouseLevel() {
		return false
	}
	if word := typeWordPrefix(seg); word != "" && word != seg && ap.catalog.GetAOTypeLevels(word) != 0 {
		return true
	}
	if sp := strings.LastIndexByte(seg, ' '); sp > 0 {
		last := seg[sp+1:]
		return typeWordPrefix(last) == last && ap.catalog.GetAOTypeLevels(last) != 0
	}
	return false
}

// singleTransition finds the byte offset of the only digit/letter boundary in
// s. Names with no boundary or with more than one are rejected.
func singleTransition(s string) (int, bool) {
	at, count := -1, 0
	var prev rune
	for i, r := range s {
		if i > 0 && (unicode.IsDigit(prev) && unicode.IsLetter(r) || unicode.IsLetter(prev) && unicode.IsDigit(r)) {
			at = i
			count++
		}
		prev = r
	}
	return at, count == 1
}

// typeWordPrefix returns the leading type-like word of s: letters, dashes and
// slashes, plus a trailing dot ("кв.3" gives "кв.").
func typeWordPrefix(s string) string {
	end := 0
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '-' || r == '/') {
			break
		}
		end = i + utf8.RuneLen(r)
	}
	if end == 0 {
		return ""
	}
	if end < len(s) && s[end] == '.' {
		end++
	}
	return s[:end]
}

func stripNumberMark(name string) string {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasPrefix(name, "№"):
		name = strings.TrimPrefix(name, "№")
	case strings.HasPrefix(name, "N") && len(name) > 1 && (name[1] == ' ' || name[1] == '.' || name[1] >= '0' && name[1] <= '9'):
		name = name[1:]
	default:
		return name
	}
	return strings.TrimLeft(name, " .")
}

func spaceIndexes(s string) []int {
	var out []int
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			out = append(out, i)
		}
	}
	return out
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func joinComma(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + ", " + b
}
