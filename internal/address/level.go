package address

import (
	"fmt"
	"math/bits"
	"strings"
)

// Level is a rung of the address hierarchy. The numeric order is the
// containment order: a child is always deeper (greater) than its parent.
type Level uint8

const (
	LevelUnknown Level = iota
	LevelRegion
	LevelDistrict
	LevelCity
	LevelCityArea
	// LevelSettlement is a village or other non-city locality.
	LevelSettlement
	LevelPlanningStructure
	LevelStreet
	LevelHouse
	LevelBuilding
	LevelStructure
	LevelFlat
	LevelRoom

	levelCount
)

// MaxLevel is the deepest level.
const MaxLevel = LevelRoom

var levelNames = [levelCount]string{
	LevelUnknown:           "UNKNOWN",
	LevelRegion:            "REGION",
	LevelDistrict:          "DISTRICT",
	LevelCity:              "CITY",
	LevelCityArea:          "CITYAREA",
	LevelSettlement:        "SETTLEMENT",
	LevelPlanningStructure: "PLANNING",
	LevelStreet:            "STREET",
	LevelHouse:             "HOUSE",
	LevelBuilding:          "BUILDING",
	LevelStructure:         "STRUCTURE",
	LevelFlat:              "FLAT",
	LevelRoom:              "ROOM",
}

// String returns the upper-case keyword of the level, as used in format strings.
func (l Level) String() string {
	if l >= levelCount {
		return fmt.Sprintf("LEVEL(%d)", uint8(l))
	}
	return levelNames[l]
}

// Valid reports whether l is a real hierarchy level (not Unknown).
func (l Level) Valid() bool {
	return l > LevelUnknown && l < levelCount
}

// IsAddressObject reports whether l is an AO level (region through street).
func (l Level) IsAddressObject() bool {
	return l >= LevelRegion && l <= LevelStreet
}

// IsHouseLevel reports whether l is a house, building, structure, flat or room.
func (l Level) IsHouseLevel() bool {
	return l >= LevelHouse && l <= LevelRoom
}

// ParseLevel maps a keyword (case-insensitive) back to its level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for l := LevelRegion; l < levelCount; l++ {
		if levelNames[l] == s {
			return l, nil
		}
	}
	return LevelUnknown, fmt.Errorf("unknown level %q", s)
}

// AllLevels returns every valid level in ascending order.
func AllLevels() []Level {
	out := make([]Level, 0, levelCount-1)
	for l := LevelRegion; l < levelCount; l++ {
		out = append(out, l)
	}
	return out
}

// LevelSet is an immutable set of levels.
type LevelSet uint16

// NewLevelSet builds a set from the given levels. Unknown is ignored.
func NewLevelSet(levels ...Level) LevelSet {
	var s LevelSet
	for _, l := range levels {
		if l.Valid() {
			s |= 1 << l
		}
	}
	return s
}

// LevelRange returns the set of levels from..to inclusive.
func LevelRange(from, to Level) LevelSet {
	var s LevelSet
	for l := from; l <= to && l < levelCount; l++ {
		if l.Valid() {
			s |= 1 << l
		}
	}
	return s
}

var (
	// AddressObjectLevels holds Region..Street.
	AddressObjectLevels = LevelRange(LevelRegion, LevelStreet)
	// HouseLevels holds House..Room.
	HouseLevels = LevelRange(LevelHouse, LevelRoom)
	// AllLevelSet holds every valid level.
	AllLevelSet = LevelRange(LevelRegion, MaxLevel)
)

func (s LevelSet) Contains(l Level) bool { return l.Valid() && s&(1<<l) != 0 }
func (s LevelSet) IsEmpty() bool         { return s == 0 }
func (s LevelSet) Len() int              { return bits.OnesCount16(uint16(s)) }

func (s LevelSet) Union(o LevelSet) LevelSet    { return s | o }
func (s LevelSet) Subtract(o LevelSet) LevelSet { return s &^ o }

// Below returns the members of s strictly deeper than l.
func (s LevelSet) Below(l Level) LevelSet {
	return s &^ (LevelSet(1)<<(l+1) - 1)
}

// AtOrBelow returns the members of s at l or deeper.
func (s LevelSet) AtOrBelow(l Level) LevelSet {
	return s &^ (LevelSet(1)<<l - 1)
}

// Top returns the shallowest member, or LevelUnknown for an empty set.
func (s LevelSet) Top() Level {
	if s == 0 {
		return LevelUnknown
	}
	return Level(bits.TrailingZeros16(uint16(s)))
}

// Levels returns the members in ascending order.
func (s LevelSet) Levels() []Level {
	out := make([]Level, 0, s.Len())
	for l := LevelRegion; l < levelCount; l++ {
		if s.Contains(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s LevelSet) String() string {
	levels := s.Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ParseLevelSet parses a comma or pipe separated list of level keywords.
func ParseLevelSet(s string) (LevelSet, error) {
	var set LevelSet
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' || r == ' ' }) {
		l, err := ParseLevel(part)
		if err != nil {
			return 0, err
		}
		set |= 1 << l
	}
	return set, nil
}

// MarshalText encodes the set as its level list so it reads well in JSON and YAML.
func (s LevelSet) MarshalText() ([]byte, error) {
	levels := s.Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return []byte(strings.Join(names, ",")), nil
}

func (s *LevelSet) UnmarshalText(b []byte) error {
	set, err := ParseLevelSet(string(b))
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
