package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripStressMarks removes combining acute/grave stress marks ("Москва́")
// while keeping letters whose decomposition is meaningful, such as "й" and "ё".
func StripStressMarks(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isStressMark), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isStressMark(r rune) bool {
	return r == '\u0301' || r == '\u0300'
}

// Clean prepares raw user input: NFC form, no stress marks, no control
// characters, and non-breaking spaces replaced by plain ones.
func Clean(s string) string {
	s = StripStressMarks(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u00a0' || r == '\u2007' || r == '\u202f' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// Transliterate returns a lowercase ASCII rendering, used as a search alias
// for input typed on a Latin keyboard.
func Transliterate(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

// HasLatin reports whether s contains any Latin letter.
func HasLatin(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.Is(unicode.Latin, r)
	})
}
