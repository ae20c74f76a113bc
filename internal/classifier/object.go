// Package classifier resolves parsed address levels against the reference
// classifier and attaches stable identifiers and codes.
package classifier

import (
	"context"
	"errors"

	"github.com/address-classifier/internal/address"
)

// ErrNoLookup is returned when a filler is built without a lookup backend.
var ErrNoLookup = errors.New("classifier: no lookup configured")

// Object is one classifier record.
type Object struct {
	GUID       string        `json:"guid" yaml:"guid" bson:"guid"`
	ParentGUID string        `json:"parent_guid,omitempty" yaml:"parent_guid" bson:"parent_guid,omitempty"`
	Level      address.Level `json:"level" yaml:"level" bson:"level"`
	Name       string        `json:"name" yaml:"name" bson:"name"`
	Type       string        `json:"type,omitempty" yaml:"type" bson:"type,omitempty"`
	RecordID   int64         `json:"record_id,omitempty" yaml:"record_id" bson:"record_id,omitempty"`
	PostalCode string        `json:"postal_code,omitempty" yaml:"postal_code" bson:"postal_code,omitempty"`
	Codes      address.Codes `json:"codes" yaml:"codes" bson:"codes"`
}

// Query asks for objects named Name at Level under the object ParentGUID.
// An empty ParentGUID searches the whole level.
type Query struct {
	Level      address.Level
	Name       string
	Type       string
	ParentGUID string
}

// Lookup resolves a query to zero, one or many candidate objects.
type Lookup interface {
	Find(ctx context.Context, q Query) ([]Object, error)
}
