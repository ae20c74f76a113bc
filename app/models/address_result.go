package models

import (
	"slices"

	"github.com/address-classifier/internal/address"
)

// AddressResult is the serialized outcome of one parse.
type AddressResult struct {
	Raw               string        `json:"raw" bson:"raw"`
	Fingerprint       string        `json:"fingerprint" bson:"fingerprint"`
	Formatted         string        `json:"formatted" bson:"formatted"`
	PostalCode        string        `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	Codes             address.Codes `json:"codes" bson:"codes"`
	Components        []Component   `json:"components" bson:"components"`
	Tail              string        `json:"tail,omitempty" bson:"tail,omitempty"`
	Matched           bool          `json:"matched" bson:"matched"`
	Severity          string        `json:"severity" bson:"severity"`
	Messages          []Message     `json:"messages,omitempty" bson:"messages,omitempty"`
	Branches          int           `json:"branches" bson:"branches"`
	Truncated         bool          `json:"truncated,omitempty" bson:"truncated,omitempty"`
	ClassifierVersion string        `json:"classifier_version" bson:"classifier_version"`
	Status            string        `json:"status" bson:"status"`
}

// Component is one named level.
type Component struct {
	Level    string `json:"level" bson:"level"`
	Name     string `json:"name" bson:"name"`
	Type     string `json:"type,omitempty" bson:"type,omitempty"`
	GUID     string `json:"guid,omitempty" bson:"guid,omitempty"`
	RecordID int64  `json:"record_id,omitempty" bson:"record_id,omitempty"`
}

// Message is a diagnostic of one level.
type Message struct {
	Level    string `json:"level" bson:"level"`
	Severity string `json:"severity" bson:"severity"`
	Text     string `json:"text" bson:"text"`
}

// Status constants
const (
	StatusMatched     = "matched"
	StatusNeedsReview = "needs_review"
	StatusUnmatched   = "unmatched"
)

// StatusOf maps an address to a review status: unparsed or with errors is
// unmatched, warnings or a leftover tail need review.
func StatusOf(addr *address.StructuredAddress, tail string, matched bool) string {
	switch {
	case !matched || addr.Severity() == address.SeverityError:
		return StatusUnmatched
	case addr.Severity() == address.SeverityWarning || tail != "":
		return StatusNeedsReview
	default:
		return StatusMatched
	}
}

// FromStructured copies the named levels and messages of addr.
func FromStructured(addr *address.StructuredAddress) AddressResult {
	res := AddressResult{
		PostalCode: addr.PostalCode,
		Codes:      addr.Codes,
		Components: []Component{},
		Severity:   addr.Severity().String(),
	}
	for _, l := range addr.Levels().Levels() {
		c := addr.Component(l)
		res.Components = append(res.Components, Component{
			Level:    l.String(),
			Name:     c.Name,
			Type:     c.Type,
			GUID:     c.GUID,
			RecordID: c.RecordID,
		})
	}
	for _, m := range addr.Messages() {
		res.Messages = append(res.Messages, Message{
			Level:    m.Level.String(),
			Severity: m.Severity.String(),
			Text:     m.Text,
		})
	}
	return res
}

// Clone returns a copy that shares no slices with ar.
func (ar *AddressResult) Clone() *AddressResult {
	c := *ar
	c.Components = slices.Clone(ar.Components)
	c.Messages = slices.Clone(ar.Messages)
	return &c
}

// Structured rebuilds an address from the components. Messages are not
// restored. Unknown level names are reported as an error.
func (ar *AddressResult) Structured() (*address.StructuredAddress, error) {
	addr := &address.StructuredAddress{PostalCode: ar.PostalCode, Codes: ar.Codes}
	for _, c := range ar.Components {
		l, err := address.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		addr.SetName(l, c.Name)
		addr.SetType(l, c.Type)
		addr.SetGUID(l, c.GUID)
		addr.SetRecordID(l, c.RecordID)
	}
	return addr, nil
}

// Component returns the component at level, if named.
func (ar *AddressResult) Component(level string) (Component, bool) {
	for _, c := range ar.Components {
		if c.Level == level {
			return c, true
		}
	}
	return Component{}, false
}
