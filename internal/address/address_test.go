package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelSet_Operations(t *testing.T) {
	s := NewLevelSet(LevelCity, LevelStreet, LevelHouse, LevelFlat)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, LevelCity, s.Top())
	assert.Equal(t, NewLevelSet(LevelHouse, LevelFlat), s.Below(LevelStreet))
	assert.Equal(t, NewLevelSet(LevelStreet, LevelHouse, LevelFlat), s.AtOrBelow(LevelStreet))
	assert.Equal(t, NewLevelSet(LevelCity, LevelStreet), s.Subtract(HouseLevels))
	assert.True(t, s.Union(NewLevelSet(LevelRegion)).Contains(LevelRegion))
	assert.Equal(t, []Level{LevelCity, LevelStreet, LevelHouse, LevelFlat}, s.Levels())
	assert.Equal(t, LevelUnknown, LevelSet(0).Top())
	assert.True(t, NewLevelSet(LevelUnknown).IsEmpty())
}

func TestLevelSet_TextRoundTrip(t *testing.T) {
	s := NewLevelSet(LevelHouse, LevelBuilding, LevelStructure)
	b, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "HOUSE,BUILDING,STRUCTURE", string(b))

	var back LevelSet
	require.NoError(t, back.UnmarshalText([]byte("house|building structure")))
	assert.Equal(t, s, back)

	assert.Error(t, back.UnmarshalText([]byte("HOUSE,NOPE")))
}

func TestStructuredAddress_CloneIsIndependent(t *testing.T) {
	a := &StructuredAddress{}
	a.SetName(LevelCity, "Москва")
	a.SetType(LevelCity, "город")
	a.AddMessage(LevelCity, SeverityInfo, "first")

	b := a.Clone()
	b.SetName(LevelStreet, "Тверская")
	b.AddMessage(LevelStreet, SeverityWarning, "second")

	assert.Equal(t, LevelCity, a.DeepestLevel())
	assert.Len(t, a.Messages(), 1)
	assert.Equal(t, LevelStreet, b.DeepestLevel())
	assert.Len(t, b.Messages(), 2)
	assert.Equal(t, SeverityInfo, a.Severity())
	assert.Equal(t, SeverityWarning, b.Severity())
}

func TestStructuredAddress_ClearFromLevel(t *testing.T) {
	a := &StructuredAddress{}
	a.SetName(LevelCity, "Москва")
	a.SetGUID(LevelCity, "guid-city")
	a.SetName(LevelStreet, "Тверская")
	a.SetGUID(LevelStreet, "guid-street")
	a.SetName(LevelHouse, "5")
	a.AddMessage(LevelStreet, SeverityWarning, "street warning")
	a.AddMessage(LevelCity, SeverityInfo, "city info")

	g := a.Clone()
	g.ClearGUIDsFromLevel(LevelStreet)
	assert.Equal(t, "guid-city", g.GUID(LevelCity))
	assert.Empty(t, g.GUID(LevelStreet))
	assert.Equal(t, "Тверская", g.Name(LevelStreet))

	a.ClearFromLevel(LevelStreet)
	assert.Equal(t, LevelCity, a.DeepestLevel())
	assert.Empty(t, a.Name(LevelHouse))
	assert.Empty(t, a.MessagesAt(LevelStreet))
	assert.Len(t, a.MessagesAt(LevelCity), 1)
	assert.Equal(t, "CITY=Москва", a.String())
}

func TestStructuredAddress_InvalidLevelIsDefect(t *testing.T) {
	a := &StructuredAddress{}
	assert.PanicsWithError(t, "internal defect: structured address: invalid level 0", func() {
		a.SetName(LevelUnknown, "x")
	})
}

func TestDefaultHierarchy(t *testing.T) {
	h := DefaultHierarchy{}
	testCases := []struct {
		parent, child Level
		strict, want  bool
	}{
		{LevelUnknown, LevelStreet, true, true},
		{LevelCity, LevelStreet, true, true},
		{LevelDistrict, LevelStreet, true, false},
		{LevelDistrict, LevelStreet, false, true},
		{LevelStreet, LevelCity, false, false},
		{LevelHouse, LevelHouse, false, false},
		{LevelHouse, LevelRoom, true, false},
		{LevelHouse, LevelRoom, false, true},
		{LevelFlat, LevelRoom, true, true},
		{LevelCity, LevelUnknown, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.parent.String()+"->"+tc.child.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, h.IsInheritableLevel(tc.parent, tc.child, tc.strict))
		})
	}
}

func TestNameRules(t *testing.T) {
	r := DefaultNameRules()
	testCases := []struct {
		name  string
		text  string
		level Level
		want  bool
	}{
		{"plain street", "Тверская", LevelStreet, true},
		{"ordinal street", "2-я Тверская-Ямская", LevelStreet, true},
		{"numbered street", "8 Марта", LevelStreet, true},
		{"digits glued to word", "НеизвестнаяУлица123", LevelStreet, false},
		{"punctuation only", "--", LevelCity, false},
		{"no letters", "123", LevelCity, false},
		{"house number", "5", LevelHouse, true},
		{"house with letter", "15а", LevelHouse, true},
		{"house fraction", "5/2", LevelHouse, true},
		{"house with dot", "д.5", LevelHouse, false},
		{"house with space", "5 а", LevelHouse, false},
		{"building letter", "А", LevelBuilding, true},
		{"flat letters only", "аб", LevelFlat, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.IsValidName(tc.text, tc.level))
		})
	}
}
