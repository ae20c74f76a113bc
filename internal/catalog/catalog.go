package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/address-classifier/internal/address"
)

// Entry is one address object type.
type Entry struct {
	Level   address.Level `json:"level" bson:"level"`
	Name    string        `json:"name" bson:"name"`
	Abbr    string        `json:"abbr" bson:"abbr"`
	ID      int           `json:"id" bson:"id"`
	Aliases []string      `json:"aliases,omitempty" bson:"aliases,omitempty"`
}

// specialLevels consult the fixed status words before the classifier table.
var specialLevels = address.NewLevelSet(
	address.LevelHouse, address.LevelBuilding, address.LevelStructure, address.LevelFlat,
	address.LevelRoom, address.LevelSettlement, address.LevelPlanningStructure, address.LevelStreet,
)

type keyedEntry struct {
	key string
	Entry
}

// Catalog answers type questions for the parser and the formatter.
// It is immutable after New; derived indexes are built on first use.
type Catalog struct {
	fixed    map[address.Level][]Entry
	byName   map[address.Level][]keyedEntry
	byAbbr   map[address.Level][]keyedEntry
	dotAbbrs map[string]address.LevelSet

	prefixLevels address.LevelSet
	suffixLevels address.LevelSet

	once    sync.Once
	derived *derivedIndex
}

type derivedIndex struct {
	levels    map[string]address.LevelSet
	maxSpaces map[address.Level]int
}

// New builds a catalog from classifier entries and the fixed rules.
// Duplicate (level, name, abbreviation) entries keep the first occurrence.
func New(entries []Entry, rules *Rules) *Catalog {
	c := &Catalog{
		fixed:        make(map[address.Level][]Entry),
		byName:       make(map[address.Level][]keyedEntry),
		byAbbr:       make(map[address.Level][]keyedEntry),
		dotAbbrs:     make(map[string]address.LevelSet),
		prefixLevels: address.AllLevelSet,
		suffixLevels: address.AddressObjectLevels,
	}
	if rules != nil {
		for l, fixed := range rules.Fixed {
			c.fixed[l] = append([]Entry(nil), fixed...)
		}
		for k, v := range rules.DotRequired {
			c.dotAbbrs[k] = v
		}
	}

	type entryKey struct {
		level      address.Level
		name, abbr string
	}
	seen := make(map[entryKey]struct{}, len(entries))
	for _, e := range entries {
		if !e.Level.Valid() || e.Name == "" {
			continue
		}
		k := entryKey{e.Level, normalizeType(e.Name), normalizeType(e.Abbr)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		e.Aliases = nil
		c.byName[e.Level] = append(c.byName[e.Level], keyedEntry{key: normalizeType(e.Name), Entry: e})
		if e.Abbr != "" {
			c.byAbbr[e.Level] = append(c.byAbbr[e.Level], keyedEntry{key: normalizeType(e.Abbr), Entry: e})
		}
	}
	for _, list := range c.byName {
		sortKeyed(list)
	}
	for _, list := range c.byAbbr {
		sortKeyed(list)
	}
	return c
}

func sortKeyed(list []keyedEntry) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].key < list[j].key })
}

// IsValidAOType reports whether text is a type word at level and returns its
// full form and identifier.
func (c *Catalog) IsValidAOType(level address.Level, text string) (bool, string, int) {
	key := normalizeType(text)
	if key == "" || !level.Valid() {
		return false, "", 0
	}
	if specialLevels.Contains(level) {
		bare := strings.TrimSuffix(key, ".")
		for _, e := range c.fixed[level] {
			if e.matches(key) || e.matches(bare) {
				return true, e.Name, e.ID
			}
		}
	}
	if e, ok := c.lookup(level, key); ok {
		return true, e.Name, e.ID
	}
	if e, ok := c.lookup(level, dotVariant(key)); ok {
		return true, e.Name, e.ID
	}
	return false, "", 0
}

func (c *Catalog) lookup(level address.Level, key string) (Entry, bool) {
	if e, ok := search(c.byName[level], key); ok {
		return e, true
	}
	return search(c.byAbbr[level], key)
}

func search(list []keyedEntry, key string) (Entry, bool) {
	i := sort.Search(len(list), func(i int) bool { return list[i].key >= key })
	if i < len(list) && list[i].key == key {
		return list[i].Entry, true
	}
	return Entry{}, false
}

func (e Entry) matches(key string) bool {
	if key == normalizeType(e.Name) || key == normalizeType(e.Abbr) {
		return true
	}
	for _, a := range e.Aliases {
		if key == normalizeType(a) {
			return true
		}
	}
	return false
}

// GetAOTypeLevels returns every level where text is a known type word.
func (c *Catalog) GetAOTypeLevels(text string) address.LevelSet {
	key := normalizeType(text)
	if key == "" {
		return 0
	}
	idx := c.index()
	return idx.levels[key].Union(idx.levels[dotVariant(key)])
}

// GetMaxSpaceCount returns the largest number of spaces inside any type
// string known at level.
func (c *Catalog) GetMaxSpaceCount(level address.Level) int {
	return c.index().maxSpaces[level]
}

func (c *Catalog) index() *derivedIndex {
	c.once.Do(func() {
		idx := &derivedIndex{
			levels:    make(map[string]address.LevelSet),
			maxSpaces: make(map[address.Level]int),
		}
		add := func(level address.Level, s string) {
			key := normalizeType(s)
			if key == "" {
				return
			}
			idx.levels[key] = idx.levels[key].Union(address.NewLevelSet(level))
			if n := strings.Count(key, " "); n > idx.maxSpaces[level] {
				idx.maxSpaces[level] = n
			}
		}
		for level, entries := range c.fixed {
			for _, e := range entries {
				add(level, e.Name)
				add(level, e.Abbr)
				for _, a := range e.Aliases {
					add(level, a)
				}
			}
		}
		for level, entries := range c.byName {
			for _, e := range entries {
				add(level, e.Name)
				add(level, e.Abbr)
			}
		}
		c.derived = idx
	})
	return c.derived
}

// IsAbbreviationDotRequired reports whether abbr is written with a trailing
// period at level. Only used for display.
func (c *Catalog) IsAbbreviationDotRequired(abbr string, level address.Level) bool {
	levels, ok := c.dotAbbrs[normalizeAbbr(abbr)]
	if !ok {
		return false
	}
	return levels.IsEmpty() || levels.Contains(level)
}

// Abbreviation returns the short form of the full type name at level.
func (c *Catalog) Abbreviation(level address.Level, full string) string {
	key := normalizeType(full)
	for _, e := range c.fixed[level] {
		if normalizeType(e.Name) == key {
			return e.Abbr
		}
	}
	if e, ok := search(c.byName[level], key); ok {
		return e.Abbr
	}
	return ""
}

// TypePrecedes reports whether a type may be written before the name ("ул. Ленина").
func (c *Catalog) TypePrecedes(level address.Level) bool { return c.prefixLevels.Contains(level) }

// TypeFollows reports whether a type may be written after the name ("Ленина ул.").
func (c *Catalog) TypeFollows(level address.Level) bool { return c.suffixLevels.Contains(level) }

// Entries returns the classifier entries of level in name order.
func (c *Catalog) Entries(level address.Level) []Entry {
	out := make([]Entry, 0, len(c.fixed[level])+len(c.byName[level]))
	out = append(out, c.fixed[level]...)
	for _, e := range c.byName[level] {
		out = append(out, e.Entry)
	}
	return out
}

func normalizeType(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	return strings.Join(strings.Fields(s), " ")
}

func normalizeAbbr(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSuffix(normalizeType(s), ".")
}

// dotVariant toggles a single trailing period.
func dotVariant(key string) string {
	if strings.HasSuffix(key, ".") {
		return strings.TrimSuffix(key, ".")
	}
	return key + "."
}
