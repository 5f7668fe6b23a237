package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout represents one logged workout session.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	WorkoutDate time.Time          `bson:"workoutDate" json:"workoutDate"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsFavorite  bool               `bson:"isFavorite" json:"isFavorite"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise links a Workout to an Exercise with per-inclusion
// parameters. OrderIndex is contiguous from zero within a workout from the
// client's perspective; the backend does not enforce contiguity.
type WorkoutExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       int                `bson:"reps" json:"reps"`
	Weight     int                `bson:"weight" json:"weight"`
	Duration   int                `bson:"duration" json:"duration"` // seconds
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// WorkoutExerciseDetail is a WorkoutExercise joined with the referenced
// exercise's display fields, as returned by the detail aggregation.
type WorkoutExerciseDetail struct {
	WorkoutExercise `bson:",inline"`

	ExerciseTitle       string `bson:"exerciseTitle" json:"exerciseTitle"`
	ExerciseDescription string `bson:"exerciseDescription,omitempty" json:"exerciseDescription,omitempty"`
	MuscleGroup         string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	MuscleGroupID       int    `bson:"muscleGroupId" json:"muscleGroupId"`
}

// WorkoutDetail is a workout plus its ordered exercise entries.
type WorkoutDetail struct {
	Workout   `bson:",inline"`
	Exercises []WorkoutExerciseDetail `json:"exercises"`
}

// WorkoutForm is the payload submitted by the view layer to create or
// replace a workout's own fields.
type WorkoutForm struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	WorkoutDate time.Time `json:"workoutDate"`
	Notes       string    `json:"notes"`
	IsFavorite  bool      `json:"isFavorite"`
}

// WorkoutExerciseForm is one in-progress composer entry, not yet persisted.
type WorkoutExerciseForm struct {
	ExerciseID primitive.ObjectID `json:"exerciseId"`
	Sets       int                `json:"sets"`
	Reps       int                `json:"reps"`
	Weight     int                `json:"weight"`
	Duration   int                `json:"duration"`
	Notes      string             `json:"notes"`
	OrderIndex int                `json:"orderIndex"`
}

// WorkoutUpdate is a partial update for a workout's own fields. A nil field
// means "leave untouched"; presence is explicit. The same shape serves the
// view-layer payload and the repository write.
type WorkoutUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	WorkoutDate *time.Time `json:"workoutDate,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	IsFavorite  *bool      `json:"isFavorite,omitempty"`
}
