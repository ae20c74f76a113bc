package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache is a persisted parse result.
type AddressCache struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint       string             `bson:"fingerprint" json:"fingerprint"`
	Key               string             `bson:"key" json:"key"`
	Result            AddressResult      `bson:"result" json:"result"`
	ClassifierVersion string             `bson:"classifier_version" json:"classifier_version"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed      time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount       int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache wraps a result for storage under the key fingerprint.
func NewAddressCache(fingerprint, key string, result AddressResult) *AddressCache {
	now := time.Now()
	return &AddressCache{
		Fingerprint:       fingerprint,
		Key:               key,
		Result:            result,
		ClassifierVersion: result.ClassifierVersion,
		CreatedAt:         now,
		LastAccessed:      now,
		AccessCount:       1,
	}
}

// IsExpired reports whether the entry is older than ttl. A zero ttl never expires.
func (ac *AddressCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ac.CreatedAt) > ttl
}
