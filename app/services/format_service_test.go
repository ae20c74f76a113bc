package services

import (
	"errors"
	"testing"

	"github.com/address-classifier/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatService_Validate(t *testing.T) {
	fs := NewFormatService(testCatalog(t))

	pf, err := fs.Validate("CITY, STREET")
	require.NoError(t, err)
	assert.Equal(t, 2, pf.Len())

	_, err = fs.Validate("{CITY")
	var syn *format.SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, "unclosed brace", syn.Msg)
}

func TestFormatService_Render(t *testing.T) {
	fs := NewFormatService(testCatalog(t))

	testCases := []struct {
		name    string
		format  string
		names   map[string]string
		types   map[string]string
		postal  string
		want    string
		wantErr bool
	}{
		{
			name:   "abbreviated types",
			format: "CITY, STREET",
			names:  map[string]string{"CITY": "Москва", "STREET": "Тверская"},
			types:  map[string]string{"CITY": "город", "STREET": "улица"},
			want:   "г. Москва, ул. Тверская",
		},
		{
			name:   "lower case level keys",
			format: "POSTALCODE, CITY.NAME",
			names:  map[string]string{"city": "Пушкино"},
			postal: "141200",
			want:   "141200, Пушкино",
		},
		{
			name:    "unknown level",
			format:  "CITY",
			names:   map[string]string{"VILLAGE": "x"},
			wantErr: true,
		},
		{
			name:    "bad format",
			format:  "CITY }",
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fs.Render(tc.format, tc.names, tc.types, tc.postal)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatService_LookupTypes(t *testing.T) {
	fs := NewFormatService(testCatalog(t))

	matches := fs.LookupTypes("улица")
	require.NotEmpty(t, matches)
	var street *TypeMatch
	for i := range matches {
		if matches[i].Level == "STREET" {
			street = &matches[i]
		}
	}
	require.NotNil(t, street)
	assert.Equal(t, "улица", street.Type)
	assert.Equal(t, "ул", street.Abbreviation)

	assert.Empty(t, fs.LookupTypes("несуществующийтип"))
}
