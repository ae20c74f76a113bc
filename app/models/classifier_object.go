package models

import (
	"time"

	"github.com/address-classifier/internal/classifier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassifierObject is a classifier record as stored in MongoDB.
type ClassifierObject struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	classifier.Object `bson:",inline"`
	ClassifierVersion string    `bson:"classifier_version" json:"classifier_version"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// NewClassifierObject stamps o with a version.
func NewClassifierObject(o classifier.Object, version string) ClassifierObject {
	now := time.Now()
	return ClassifierObject{
		Object:            o,
		ClassifierVersion: version,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
