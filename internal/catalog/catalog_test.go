package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/address-classifier/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	rules, err := LoadRules()
	require.NoError(t, err)
	c, err := Load(context.Background(), rules, zap.NewNop(), EmbeddedSource{Rules: rules})
	require.NoError(t, err)
	return c
}

func TestIsValidAOType(t *testing.T) {
	c := newTestCatalog(t)

	testCases := []struct {
		name     string
		level    address.Level
		text     string
		ok       bool
		fullForm string
	}{
		{"city abbreviation with dot", address.LevelCity, "г.", true, "город"},
		{"city full name upper case", address.LevelCity, "ГОРОД", true, "город"},
		{"street fixed word", address.LevelStreet, "ул.", true, "улица"},
		{"street classifier word", address.LevelStreet, "туп", true, "тупик"},
		{"house fixed abbreviation", address.LevelHouse, "д.", true, "дом"},
		{"house alias", address.LevelHouse, "вл", true, "владение"},
		{"building alias", address.LevelBuilding, "к.", true, "корпус"},
		{"settlement uses same abbreviation as house", address.LevelSettlement, "д", true, "деревня"},
		{"compound type", address.LevelPlanningStructure, "садовое  некоммерческое товарищество", true, "садовое некоммерческое товарищество"},
		{"abbreviation with inner dots", address.LevelDistrict, "г.о", true, "городской округ"},
		{"wrong level", address.LevelHouse, "ул", false, ""},
		{"unknown word", address.LevelStreet, "Тверская", false, ""},
		{"empty", address.LevelStreet, " ", false, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, full, _ := c.IsValidAOType(tc.level, tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.fullForm, full)
		})
	}
}

func TestGetAOTypeLevels(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, address.NewLevelSet(address.LevelHouse, address.LevelSettlement), c.GetAOTypeLevels("д."))
	assert.Equal(t, address.NewLevelSet(address.LevelRegion, address.LevelCity), c.GetAOTypeLevels("г"))
	assert.Equal(t, address.NewLevelSet(address.LevelStreet), c.GetAOTypeLevels("Улица"))
	assert.True(t, c.GetAOTypeLevels("Москва").IsEmpty())
}

func TestGetMaxSpaceCount(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, 1, c.GetMaxSpaceCount(address.LevelCity))
	assert.Equal(t, 2, c.GetMaxSpaceCount(address.LevelPlanningStructure))
	assert.Equal(t, 2, c.GetMaxSpaceCount(address.LevelHouse))
	assert.Equal(t, 0, c.GetMaxSpaceCount(address.LevelBuilding))
	assert.Equal(t, 2, c.GetMaxSpaceCount(address.LevelSettlement))
}

func TestCatalog_ConcurrentIndexBuild(t *testing.T) {
	c := newTestCatalog(t)

	var wg sync.WaitGroup
	results := make([]address.LevelSet, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetAOTypeLevels("ул")
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, address.NewLevelSet(address.LevelStreet), r)
	}
}

func TestIsAbbreviationDotRequired(t *testing.T) {
	c := newTestCatalog(t)

	assert.True(t, c.IsAbbreviationDotRequired("ул", address.LevelStreet))
	assert.True(t, c.IsAbbreviationDotRequired("УЛ.", address.LevelStreet))
	assert.True(t, c.IsAbbreviationDotRequired("к", address.LevelBuilding))
	assert.False(t, c.IsAbbreviationDotRequired("к", address.LevelFlat))
	assert.False(t, c.IsAbbreviationDotRequired("р-н", address.LevelDistrict))
	assert.False(t, c.IsAbbreviationDotRequired("пр-кт", address.LevelStreet))
}

func TestAbbreviation(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, "ул", c.Abbreviation(address.LevelStreet, "улица"))
	assert.Equal(t, "г", c.Abbreviation(address.LevelCity, "город"))
	assert.Equal(t, "д", c.Abbreviation(address.LevelHouse, "Дом"))
	assert.Empty(t, c.Abbreviation(address.LevelHouse, "улица"))
}

func TestNew_SkipsDuplicatesAndInvalid(t *testing.T) {
	c := New([]Entry{
		{Level: address.LevelStreet, Name: "улица", Abbr: "ул", ID: 1},
		{Level: address.LevelStreet, Name: "Улица", Abbr: "ул", ID: 2},
		{Level: address.LevelUnknown, Name: "мусор"},
	}, nil)

	assert.Len(t, c.Entries(address.LevelStreet), 1)
	ok, _, id := c.IsValidAOType(address.LevelStreet, "ул")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}
