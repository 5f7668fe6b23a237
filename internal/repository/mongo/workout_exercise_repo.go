package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"fittrack/internal/domain"
	"fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutExerciseCollectionName = "workout_exercises"

// mongoWorkoutExerciseRepository implements repository.WorkoutExerciseRepository
type mongoWorkoutExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutExerciseRepository creates a new WorkoutExercise repository backed by MongoDB.
func NewMongoWorkoutExerciseRepository(db *mongo.Database) repository.WorkoutExerciseRepository {
	return &mongoWorkoutExerciseRepository{
		collection: db.Collection(workoutExerciseCollectionName),
	}
}

// Insert adds one join row linking a workout to an exercise.
func (r *mongoWorkoutExerciseRepository) Insert(ctx context.Context, entry *domain.WorkoutExercise) (*domain.WorkoutExercise, error) {
	if entry.WorkoutID == primitive.NilObjectID || entry.ExerciseID == primitive.NilObjectID {
		return nil, errors.New("workout ID and exercise ID are required")
	}

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetByWorkoutID retrieves a workout's entries in order_index order, joined
// with the referenced exercise's display fields and muscle group name.
func (r *mongoWorkoutExerciseRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExerciseDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"workoutId": workoutID}}},
		{{Key: "$sort", Value: bson.D{{Key: "orderIndex", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         exerciseCollectionName,
			"localField":   "exerciseId",
			"foreignField": "_id",
			"as":           "ex",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$ex", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         muscleGroupCollectionName,
			"localField":   "ex.muscleGroupId",
			"foreignField": "_id",
			"as":           "mg",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"exerciseTitle":       "$ex.title",
			"exerciseDescription": "$ex.description",
			"muscleGroupId":       "$ex.muscleGroupId",
			"muscleGroup":         bson.M{"$arrayElemAt": bson.A{"$mg.name", 0}},
		}}},
		{{Key: "$project", Value: bson.M{"ex": 0, "mg": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.WorkoutExerciseDetail
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Delete removes one join row by its ID.
func (r *mongoWorkoutExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// EnsureWorkoutExerciseIndexes creates necessary indexes for the workout_exercises collection.
func EnsureWorkoutExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "orderIndex", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
