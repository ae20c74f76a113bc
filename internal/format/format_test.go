package format

import (
	"errors"
	"testing"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BraceGroupWithPrefix(t *testing.T) {
	pf, err := Parse(`{"г." CITY.NAME}`)
	require.NoError(t, err)

	items := pf.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "г.", items[0].Prefix)
	assert.Equal(t, ComponentType{Kind: KindName, Level: address.LevelCity}, items[0].Component)
	assert.Equal(t, "CITY.NAME", items[0].Component.String())
}

func TestParse_Valid(t *testing.T) {
	testCases := []struct {
		format     string
		separators []string
		components []string
	}{
		{"HOUSE.ABBR HOUSE.NUM", []string{"", " "}, []string{"HOUSE.ABBR", "HOUSE.NUM"}},
		{"CITY, STREET", []string{"", ", "}, []string{"CITY", "STREET"}},
		{`CITY ", д. " HOUSE.NUM`, []string{"", ", д. "}, []string{"CITY", "HOUSE.NUM"}},
		{`{CITY.NAME}{"/" STREET.NAME ";"}`, []string{"", ""}, []string{"CITY.NAME", "STREET.NAME"}},
		{"  POSTALCODE AT.STREET  ", []string{"", " "}, []string{"POSTALCODE", "AT.STREET"}},
		{"AO.GUID ANY.GUID OKATO OKTMO IFNSFL IFNSUL REGIONCODE TEXT", nil, nil},
		{"ROOM.RECID-FLAT.GUID", []string{"", "-"}, []string{"ROOM.RECID", "FLAT.GUID"}},
	}
	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			pf, err := Parse(tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.format, pf.String())
			if tc.components == nil {
				return
			}
			items := pf.Items()
			require.Len(t, items, len(tc.components))
			for i, it := range items {
				assert.Equal(t, tc.separators[i], it.Separator)
				assert.Equal(t, tc.components[i], it.Component.String())
			}
		})
	}
}

func TestParse_ConstantItem(t *testing.T) {
	pf, err := Parse(`{"Адрес: ""А"""} CITY.NAME`)
	require.NoError(t, err)

	items := pf.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].IsConstant())
	assert.Equal(t, `Адрес: "А"`, items[0].Literal)
	assert.Equal(t, "CITY.NAME", items[1].Component.String())
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		format string
		msg    string
		offset int
		length int
	}{
		{"{{A}}", "nested braces", 1, 1},
		{"FOO", "unknown component type", 0, 3},
		{"CITY.FOO", "unknown component type", 0, 8},
		{"CITY.NUM", "unknown component type", 0, 8},
		{"city", "unknown component type", 0, 4},
		{"CITY..NAME", "misplaced dot in component type", 0, 10},
		{"CITY. STREET", "misplaced dot in component type", 0, 5},
		{"{CITY", "unclosed brace", 0, 1},
		{"CITY}", "unmatched closing brace", 4, 1},
		{"{}", "no component type in braces", 0, 2},
		{`{"a" "b" CITY}`, "two consecutive prefixes", 5, 3},
		{`{CITY "a" "b"}`, "two consecutive suffixes", 10, 3},
		{"{CITY STREET}", "more than one component type in braces", 6, 6},
		{", CITY", "separator before first component", 0, 2},
		{`"x" CITY`, "separator before first component", 0, 3},
		{"CITY, ", "separator after last component", 4, 2},
		{`CITY "x`, "unterminated literal", 5, 2},
		{"CITY ! STREET", "unexpected character", 5, 1},
		{"{CITY, }", "unquoted text inside braces", 5, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			_, err := Parse(tc.format)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "want *SyntaxError, got %T", err)
			assert.Equal(t, tc.msg, se.Msg)
			assert.Equal(t, tc.offset, se.Offset)
			assert.Equal(t, tc.length, se.Length)
		})
	}
}

func TestSyntaxError_Caret(t *testing.T) {
	_, err := Parse("CITY, FOO")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "CITY, FOO\n      ^~~", se.Caret("CITY, FOO"))
}

func TestParseComponentType(t *testing.T) {
	for _, level := range address.AllLevels() {
		ct, ok := ParseComponentType(level.String())
		require.True(t, ok)
		assert.Equal(t, ComponentType{Kind: KindFull, Level: level}, ct)

		ct, ok = ParseComponentType("AT." + level.String())
		require.True(t, ok)
		assert.Equal(t, KindThrough, ct.Kind)

		_, ok = ParseComponentType(level.String() + ".NUM")
		assert.Equal(t, level.IsHouseLevel(), ok, "NUM at %s", level)
	}
	_, ok := ParseComponentType("AT.NOWHERE")
	assert.False(t, ok)
}

func TestDefaults(t *testing.T) {
	for _, level := range address.AllLevels() {
		assert.Positive(t, Default(level).Len(), "default for %s", level)
	}
	assert.Equal(t, "HOUSE.ABBR HOUSE.NUM", Default(address.LevelHouse).String())
	assert.Equal(t, 0, Default(address.LevelUnknown).Len())
	assert.Equal(t, AddressSource, DefaultAddress().String())
}

func moscow() *address.StructuredAddress {
	a := &address.StructuredAddress{}
	a.SetName(address.LevelCity, "Москва")
	a.SetType(address.LevelCity, "город")
	a.SetGUID(address.LevelCity, "city-guid")
	a.SetName(address.LevelStreet, "Тверская")
	a.SetType(address.LevelStreet, "улица")
	a.SetGUID(address.LevelStreet, "street-guid")
	a.SetName(address.LevelHouse, "15а")
	a.SetType(address.LevelHouse, "дом")
	a.SetGUID(address.LevelHouse, "house-guid")
	a.SetRecordID(address.LevelHouse, 42)
	a.Codes.OKATO = "45286585000"
	return a
}

func TestFormatter_Render(t *testing.T) {
	rules, err := catalog.LoadRules()
	require.NoError(t, err)
	f := NewFormatter(catalog.New(rules.Classifier, rules))
	addr := moscow()

	testCases := []struct {
		format string
		want   string
	}{
		{AddressSource, "г. Москва, ул. Тверская, д. 15А"},
		{"AT.STREET", "г. Москва, ул. Тверская"},
		{`POSTALCODE, {"г. " CITY.NAME}`, "г. Москва"},
		{`{"кв. " FLAT.NAME}, HOUSE.NAME`, "15а"},
		{`STREET.TYPE " " STREET.NAME`, "улица Тверская"},
		{"HOUSE.RECID HOUSE.GUID", "42 house-guid"},
		{"AO.GUID; ANY.GUID; OKATO", "street-guid; house-guid; 45286585000"},
		{`{"["} FLAT.NAME {"]"}`, "[ ]"},
		{"TEXT", "г. Москва, ул. Тверская, д. 15А"},
	}
	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			got, err := f.RenderString(addr, tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatter_WithoutAbbreviator(t *testing.T) {
	f := NewFormatter(nil)
	assert.Equal(t, "город Москва", f.Render(moscow(), Default(address.LevelCity)))
}
