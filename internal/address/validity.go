package address

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameValidity is the syntactic check applied to every candidate name.
type NameValidity interface {
	IsValidName(text string, level Level) bool
}

// NameRules is the default NameValidity.
type NameRules struct {
	MaxObjectName int // rune limit for region..street names
	MaxHouseName  int // rune limit for house..room numbers
}

// DefaultNameRules returns the rules used when nothing else is configured.
func DefaultNameRules() NameRules {
	return NameRules{MaxObjectName: 120, MaxHouseName: 20}
}

func (r NameRules) IsValidName(text string, level Level) bool {
	text = strings.TrimSpace(text)
	if text == "" || !level.Valid() {
		return false
	}
	if !strings.ContainsFunc(text, isAlnum) {
		return false
	}
	if level.IsHouseLevel() {
		return r.validHouseName(text, level)
	}
	return r.validObjectName(text)
}

func (r NameRules) validObjectName(text string) bool {
	if r.MaxObjectName > 0 && utf8.RuneCountInString(text) > r.MaxObjectName {
		return false
	}
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	// A digit glued to the end of a word ("Улица123") is not a name.
	var prev rune
	for _, c := range text {
		if unicode.IsDigit(c) && unicode.IsLetter(prev) {
			return false
		}
		if !isAlnum(c) && !unicode.IsSpace(c) && !strings.ContainsRune(`-.,()"'№/\`, c) {
			return false
		}
		prev = c
	}
	return true
}

func (r NameRules) validHouseName(text string, level Level) bool {
	if r.MaxHouseName > 0 && utf8.RuneCountInString(text) > r.MaxHouseName {
		return false
	}
	hasDigit := false
	letters := 0
	for _, c := range text {
		switch {
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsLetter(c):
			letters++
		case c == '-' || c == '/' || c == '\\':
		default:
			return false
		}
	}
	if hasDigit {
		return true
	}
	switch level {
	case LevelBuilding, LevelStructure:
		return letters > 0 && letters <= 2
	}
	return false
}

func isAlnum(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}
