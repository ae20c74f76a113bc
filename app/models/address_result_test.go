package models

import (
	"testing"
	"time"

	"github.com/address-classifier/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moscow() *address.StructuredAddress {
	a := &address.StructuredAddress{PostalCode: "125009"}
	a.SetName(address.LevelCity, "Москва")
	a.SetType(address.LevelCity, "город")
	a.SetGUID(address.LevelCity, "city-guid")
	a.SetName(address.LevelStreet, "Тверская")
	a.SetType(address.LevelStreet, "улица")
	a.SetName(address.LevelHouse, "5")
	a.SetRecordID(address.LevelHouse, 42)
	return a
}

func TestStatusOf(t *testing.T) {
	warned := moscow()
	warned.AddMessage(address.LevelStreet, address.SeverityWarning, "street not found")
	failed := moscow()
	failed.AddMessage(address.LevelCity, address.SeverityError, "bad city")
	informed := moscow()
	informed.AddMessage(address.LevelHouse, address.SeverityInfo, "house type assumed")

	testCases := []struct {
		name    string
		addr    *address.StructuredAddress
		tail    string
		matched bool
		want    string
	}{
		{"clean", moscow(), "", true, StatusMatched},
		{"info only", informed, "", true, StatusMatched},
		{"tail left", moscow(), "кв 5 этаж 2", true, StatusNeedsReview},
		{"warning", warned, "", true, StatusNeedsReview},
		{"error", failed, "", true, StatusUnmatched},
		{"not matched", &address.StructuredAddress{}, "что-то", false, StatusUnmatched},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.addr, tc.tail, tc.matched))
		})
	}
}

func TestFromStructured(t *testing.T) {
	a := moscow()
	a.AddMessage(address.LevelStreet, address.SeverityWarning, "street not found")

	r := FromStructured(a)
	assert.Equal(t, "125009", r.PostalCode)
	assert.Equal(t, "warning", r.Severity)
	require.Len(t, r.Components, 3)
	assert.Equal(t, "CITY", r.Components[0].Level)
	assert.Equal(t, "HOUSE", r.Components[2].Level)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "STREET", r.Messages[0].Level)
	assert.Equal(t, "warning", r.Messages[0].Severity)

	c, ok := r.Component("CITY")
	require.True(t, ok)
	assert.Equal(t, "city-guid", c.GUID)
	_, ok = r.Component("FLAT")
	assert.False(t, ok)

	back, err := r.Structured()
	require.NoError(t, err)
	assert.Equal(t, "Тверская", back.Name(address.LevelStreet))
	assert.Equal(t, int64(42), back.Component(address.LevelHouse).RecordID)
}

func TestFromStructured_EmptyComponents(t *testing.T) {
	r := FromStructured(&address.StructuredAddress{})
	assert.NotNil(t, r.Components)
	assert.Empty(t, r.Components)
}

func TestJob(t *testing.T) {
	j := Job{Total: 4, Processed: 1, Status: JobStatusRunning}
	assert.InDelta(t, 0.25, j.Progress(), 1e-9)
	assert.False(t, j.Finished())
	j.Status = JobStatusDone
	assert.True(t, j.Finished())
	empty := Job{}
	assert.Equal(t, 1.0, empty.Progress(), "an empty job is complete")
}

func TestAddressCache_IsExpired(t *testing.T) {
	c := NewAddressCache("fp", "key", AddressResult{ClassifierVersion: "v"})
	assert.Equal(t, "v", c.ClassifierVersion)
	assert.False(t, c.IsExpired(time.Hour))
	assert.False(t, c.IsExpired(0))
	c.CreatedAt = time.Now().Add(-2 * time.Hour)
	assert.True(t, c.IsExpired(time.Hour))
}
