package domain

import "time"

// MuscleGroup is read-only reference data used to classify exercises.
// The set is seeded once and never mutated by this application.
type MuscleGroup struct {
	ID        int       `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
