package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise represents a single exercise in the user's catalog.
type Exercise struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"` // Owning identity; every exercise belongs to exactly one user
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroupID int                `bson:"muscleGroupId" json:"muscleGroupId"` // FK into the muscle_groups reference collection

	// MuscleGroup is the denormalized group name. It is populated by the
	// list aggregation (and by the store when applying raw change events);
	// it is never written back to the exercises collection.
	MuscleGroup string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`

	// Optional default workout parameters for this exercise.
	Sets     int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     int    `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight   int    `bson:"weight,omitempty" json:"weight,omitempty"`
	Duration int    `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`

	IsFavorite bool `bson:"isFavorite" json:"isFavorite"`

	// VideoObjectKey points at an optional demo video in object storage.
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"videoObjectKey,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseForm is the payload submitted by the view layer to create an
// exercise. Muscles carries the muscle group *name*; the store resolves it
// against the loaded reference set before any write.
type ExerciseForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Muscles     string `json:"muscles"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Weight      int    `json:"weight"`
	Duration    int    `json:"duration"`
	Notes       string `json:"notes"`
	IsFavorite  bool   `json:"isFavorite"`
}

// ExercisePatch is a partial update submitted by the view layer. A nil field
// means "leave untouched"; field presence is explicit rather than inferred
// from zero values.
type ExercisePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Muscles     *string `json:"muscles,omitempty"` // group name, resolved by the store
	Sets        *int    `json:"sets,omitempty"`
	Reps        *int    `json:"reps,omitempty"`
	Weight      *int    `json:"weight,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	IsFavorite  *bool   `json:"isFavorite,omitempty"`
}

// ExerciseUpdate is the repository-level partial update, with the muscle
// group already resolved to its foreign key. Only non-nil fields are written.
type ExerciseUpdate struct {
	Title          *string
	Description    *string
	MuscleGroupID  *int
	Sets           *int
	Reps           *int
	Weight         *int
	Duration       *int
	Notes          *string
	IsFavorite     *bool
	VideoObjectKey *string
}
