package normalizer

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/address-classifier/internal/address"
)

// endingStoplist holds short adjectival endings that show up as separate
// tokens after a dash: "1-ый", "2-я", "3-го".
var endingStoplist = map[string]struct{}{
	"й": {}, "я": {}, "е": {}, "ю": {}, "м": {}, "х": {},
	"ый": {}, "ий": {}, "ой": {}, "ая": {}, "яя": {}, "ое": {}, "ее": {},
	"ые": {}, "ие": {}, "го": {}, "му": {}, "ми": {}, "ую": {}, "юю": {},
	"ых": {}, "их": {},
}

// NormalizedName is an address object name split into comparable tokens.
//
// Equality is fuzzy (see Equal) and therefore not transitive; NormalizedName
// values must not be used as map keys. Use NameList for de-duplication.
type NormalizedName struct {
	original string
	tokens   []string
}

// NewName tokenizes raw.
func NewName(raw string) NormalizedName {
	raw = strings.TrimSpace(raw)
	return NormalizedName{original: raw, tokens: Tokenize(raw)}
}

// Tokenize lowercases s and splits it on spaces, punctuation, dashes and "№".
// A trailing grammatical ending is dropped when it is not the first token.
func Tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	fields := strings.FieldsFunc(s, isTokenDelimiter)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(tokens) > 0 && utf8.RuneCountInString(f) <= 2 {
			if _, ok := endingStoplist[f]; ok {
				continue
			}
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isTokenDelimiter(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '№'
}

func (n NormalizedName) String() string { return n.original }

// Tokens returns a copy of the token list.
func (n NormalizedName) Tokens() []string { return slices.Clone(n.tokens) }

func (n NormalizedName) IsEmpty() bool { return len(n.tokens) == 0 }

// Hash is constant: fuzzy equality has no compatible hash.
func (n NormalizedName) Hash() int { return 0 }

// Equal reports whether n and o name the same object. See Equal.
func (n NormalizedName) Equal(o NormalizedName) bool { return Equal(n, o) }

// Equal compares two names token by token:
//
//  1. equal tokens are paired first-fit left to right; the last tokens of
//     both sides may also differ in a final "а"/"о" after "в" or "н";
//  2. an unpaired single Cyrillic letter that is not the last token pairs
//     with an unpaired token of the other side starting with that letter;
//  3. names are equal when nothing is left, or when the leftovers on one side
//     are a prefix of 1-2 lowercase Cyrillic words in a 2-4 word name whose
//     last word was paired ("Маркса" vs "Карла Маркса").
//
// The pair is evaluated in a canonical order so Equal(a, b) == Equal(b, a).
func Equal(a, b NormalizedName) bool {
	x, y := a.tokens, b.tokens
	if slices.Compare(x, y) > 0 {
		x, y = y, x
	}
	return matchTokens(x, y)
}

func matchTokens(x, y []string) bool {
	usedX := make([]bool, len(x))
	usedY := make([]bool, len(y))

	for i, tx := range x {
		for j, ty := range y {
			if !usedY[j] && tx == ty {
				usedX[i], usedY[j] = true, true
				break
			}
		}
	}
	if len(x) > 0 && len(y) > 0 {
		lx, ly := len(x)-1, len(y)-1
		if !usedX[lx] && !usedY[ly] && finalVowelVariant(x[lx], y[ly]) {
			usedX[lx], usedY[ly] = true, true
		}
	}

	matchInitials(x, usedX, y, usedY)
	matchInitials(y, usedY, x, usedX)

	restX, restY := countUnused(usedX), countUnused(usedY)
	switch {
	case restX == 0 && restY == 0:
		return true
	case restX > 0 && restY > 0:
		return false
	case restX > 0:
		return skippable(x, usedX, restX)
	default:
		return skippable(y, usedY, restY)
	}
}

// finalVowelVariant matches "Криводаново" with "Криводанова".
func finalVowelVariant(p, q string) bool {
	rp, rq := []rune(p), []rune(q)
	n := len(rp)
	if n < 2 || n != len(rq) {
		return false
	}
	for i := 0; i < n-1; i++ {
		if rp[i] != rq[i] {
			return false
		}
	}
	a, b := rp[n-1], rq[n-1]
	if !(a == 'а' && b == 'о' || a == 'о' && b == 'а') {
		return false
	}
	return rp[n-2] == 'в' || rp[n-2] == 'н'
}

func matchInitials(side []string, usedSide []bool, other []string, usedOther []bool) {
	for i, t := range side {
		if usedSide[i] || i == len(side)-1 {
			continue
		}
		r, size := utf8.DecodeRuneInString(t)
		if size != len(t) || !isCyrillicLetter(r) {
			continue
		}
		for j, o := range other {
			if usedOther[j] {
				continue
			}
			if first, _ := utf8.DecodeRuneInString(o); first == r {
				usedSide[i], usedOther[j] = true, true
				break
			}
		}
	}
}

func skippable(tokens []string, used []bool, unused int) bool {
	if unused == 0 {
		address.Defect("name match: no unmatched tokens to skip in %q", tokens)
	}
	n := len(tokens)
	if n < 2 || n > 4 || !used[n-1] || unused > 2 {
		return false
	}
	for i := 0; i < unused; i++ {
		if used[i] || !isLowerCyrillicWord(tokens[i]) {
			return false
		}
	}
	return true
}

func countUnused(used []bool) int {
	n := 0
	for _, u := range used {
		if !u {
			n++
		}
	}
	return n
}

func isCyrillicLetter(r rune) bool {
	return unicode.Is(unicode.Cyrillic, r) && unicode.IsLetter(r)
}

func isLowerCyrillicWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isCyrillicLetter(r) || !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// NameList is a list of names de-duplicated with Equal.
type NameList []NormalizedName

// Index returns the position of the first element equal to n, or -1.
func (l NameList) Index(n NormalizedName) int {
	for i, m := range l {
		if Equal(m, n) {
			return i
		}
	}
	return -1
}

func (l NameList) Contains(n NormalizedName) bool { return l.Index(n) >= 0 }

// Add appends n unless an equal name is already present.
func (l *NameList) Add(n NormalizedName) bool {
	if l.Contains(n) {
		return false
	}
	*l = append(*l, n)
	return true
}
