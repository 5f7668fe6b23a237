package repository

import (
	"context"

	"fittrack/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// MuscleGroupRepository serves the read-only muscle group reference set.
type MuscleGroupRepository interface {
	GetAll(ctx context.Context) ([]domain.MuscleGroup, error) // ordered by name
}

// ExerciseRepository defines row storage for the exercises table.
// Create returns the created row including generated id and timestamps;
// Update applies only the fields present in the partial update and returns
// the updated row. Watch opens a change-event stream filtered to the owner's
// rows; the returned channel is closed when ctx is cancelled.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) // newest-first
	Update(ctx context.Context, id, userID primitive.ObjectID, update domain.ExerciseUpdate) (*domain.Exercise, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.ExerciseEvent, error)
}

// WorkoutRepository defines row storage for the workouts table.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (*domain.Workout, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) // newest-first
	Update(ctx context.Context, id, userID primitive.ObjectID, update domain.WorkoutUpdate) (*domain.Workout, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.WorkoutEvent, error)
}

// WorkoutExerciseRepository stores the workout/exercise join rows.
// Only per-row operations are offered; the composer sequences them and
// accepts that a failure mid-sequence leaves partial writes behind.
type WorkoutExerciseRepository interface {
	Insert(ctx context.Context, entry *domain.WorkoutExercise) (*domain.WorkoutExercise, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExerciseDetail, error) // order_index ascending
	Delete(ctx context.Context, id primitive.ObjectID) error
}
