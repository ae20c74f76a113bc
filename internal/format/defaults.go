package format

import (
	"sync"

	"github.com/address-classifier/internal/address"
)

var defaultSources = map[address.Level]string{
	address.LevelRegion:            "REGION.NAME REGION.ABBR",
	address.LevelDistrict:          "DISTRICT.NAME DISTRICT.ABBR",
	address.LevelCity:              "CITY.ABBR CITY.NAME",
	address.LevelCityArea:          "CITYAREA.ABBR CITYAREA.NAME",
	address.LevelSettlement:        "SETTLEMENT.ABBR SETTLEMENT.NAME",
	address.LevelPlanningStructure: "PLANNING.ABBR PLANNING.NAME",
	address.LevelStreet:            "STREET.ABBR STREET.NAME",
	address.LevelHouse:             "HOUSE.ABBR HOUSE.NUM",
	address.LevelBuilding:          "BUILDING.ABBR BUILDING.NUM",
	address.LevelStructure:         "STRUCTURE.ABBR STRUCTURE.NUM",
	address.LevelFlat:              "FLAT.ABBR FLAT.NUM",
	address.LevelRoom:              "ROOM.ABBR ROOM.NUM",
}

// AddressSource is the default format of a whole address.
const AddressSource = "POSTALCODE, REGION, DISTRICT, CITY, CITYAREA, SETTLEMENT, PLANNING, STREET, HOUSE, BUILDING, STRUCTURE, FLAT, ROOM"

var (
	defaultsOnce sync.Once
	defaults     map[address.Level]ParsedFormatString
	addressFmt   ParsedFormatString
)

func loadDefaults() {
	defaultsOnce.Do(func() {
		m := make(map[address.Level]ParsedFormatString, len(defaultSources))
		for l, src := range defaultSources {
			m[l] = MustParse(src)
		}
		defaults = m
		addressFmt = MustParse(AddressSource)
	})
}

// Default returns the format of a single level. Unknown levels have none.
func Default(level address.Level) ParsedFormatString {
	loadDefaults()
	return defaults[level]
}

// DefaultAddress returns the format of a whole address.
func DefaultAddress() ParsedFormatString {
	loadDefaults()
	return addressFmt
}
