package address

// HierarchyRules decides whether child may directly follow parent.
type HierarchyRules interface {
	IsInheritableLevel(parent, child Level, strict bool) bool
}

// DefaultHierarchy follows the usual layout of the Russian address classifier.
//
// In strict mode only the listed direct parents are accepted. Otherwise any
// shallower level may be a parent, since intermediate levels are often
// omitted (a street directly in a region for federal cities, a house directly
// in a settlement).
type DefaultHierarchy struct{}

var strictParents = [levelCount]LevelSet{
	LevelRegion:            0,
	LevelDistrict:          NewLevelSet(LevelRegion),
	LevelCity:              NewLevelSet(LevelRegion, LevelDistrict),
	LevelCityArea:          NewLevelSet(LevelCity),
	LevelSettlement:        NewLevelSet(LevelRegion, LevelDistrict, LevelCity, LevelCityArea),
	LevelPlanningStructure: NewLevelSet(LevelCity, LevelCityArea, LevelSettlement),
	LevelStreet:            NewLevelSet(LevelRegion, LevelCity, LevelCityArea, LevelSettlement, LevelPlanningStructure),
	LevelHouse:             NewLevelSet(LevelSettlement, LevelPlanningStructure, LevelStreet),
	LevelBuilding:          NewLevelSet(LevelHouse),
	LevelStructure:         NewLevelSet(LevelHouse, LevelBuilding),
	LevelFlat:              NewLevelSet(LevelHouse, LevelBuilding, LevelStructure),
	LevelRoom:              NewLevelSet(LevelFlat),
}

func (DefaultHierarchy) IsInheritableLevel(parent, child Level, strict bool) bool {
	if !child.Valid() {
		return false
	}
	if parent == LevelUnknown {
		return true
	}
	if !parent.Valid() {
		return false
	}
	if strict {
		return strictParents[child].Contains(parent)
	}
	return parent < child
}
