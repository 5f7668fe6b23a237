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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise and returns the created row, including the
// generated id and timestamps.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Title == "" || exercise.UserID == primitive.NilObjectID {
		return nil, errors.New("exercise title and user ID are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	// The denormalized group name is derived at read time, never stored.
	exercise.MuscleGroup = ""

	_, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return nil, err
	}

	return exercise, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByUserID retrieves all exercises owned by a user, newest-first, with
// the muscle group name joined in from the reference collection.
func (r *mongoExerciseRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         muscleGroupCollectionName,
			"localField":   "muscleGroupId",
			"foreignField": "_id",
			"as":           "mg",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"muscleGroup": bson.M{"$arrayElemAt": bson.A{"$mg.name", 0}},
		}}},
		{{Key: "$project", Value: bson.M{"mg": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// Update applies a partial update to an exercise owned by the given user and
// returns the updated row. Absent (nil) fields are left untouched.
func (r *mongoExerciseRepository) Update(ctx context.Context, id, userID primitive.ObjectID, update domain.ExerciseUpdate) (*domain.Exercise, error) {
	if id == primitive.NilObjectID {
		return nil, errors.New("exercise ID is required for update")
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.MuscleGroupID != nil {
		set["muscleGroupId"] = *update.MuscleGroupID
	}
	if update.Sets != nil {
		set["sets"] = *update.Sets
	}
	if update.Reps != nil {
		set["reps"] = *update.Reps
	}
	if update.Weight != nil {
		set["weight"] = *update.Weight
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.IsFavorite != nil {
		set["isFavorite"] = *update.IsFavorite
	}
	if update.VideoObjectKey != nil {
		set["videoObjectKey"] = *update.VideoObjectKey
	}

	// The filter scopes the write to the owner; another user's row simply
	// does not match.
	filter := bson.M{"_id": id, "userId": userID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Exercise
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &updated, nil
}

// Delete removes an exercise, ensuring it belongs to the specified user.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "userId": userID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		// Either the row never existed or it belongs to another user; the
		// owner-scoped filter makes both look the same.
		return repository.ErrNotFound
	}

	return nil
}

// Watch opens a change stream over the user's exercise rows and translates
// stream documents into domain events. Delete events carry only the document
// key, so they cannot be owner-filtered server-side; the store's id-based
// removal makes a foreign delete a no-op.
func (r *mongoExerciseRepository) Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.ExerciseEvent, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{
					"operationType":       bson.M{"$in": bson.A{"insert", "update", "replace"}},
					"fullDocument.userId": userID,
				},
				bson.M{"operationType": "delete"},
			},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.ExerciseEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var doc struct {
				OperationType string           `bson:"operationType"`
				FullDocument  *domain.Exercise `bson:"fullDocument"`
				DocumentKey   struct {
					ID primitive.ObjectID `bson:"_id"`
				} `bson:"documentKey"`
			}
			if err := stream.Decode(&doc); err != nil {
				log.Printf("WARN: Failed to decode exercise change event: %v", err)
				continue
			}

			ev := translateExerciseEvent(doc.OperationType, doc.FullDocument, doc.DocumentKey.ID)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("WARN: Exercise change stream closed with error: %v", err)
		}
	}()

	return events, nil
}

// translateExerciseEvent maps a raw change stream operation onto the event
// taxonomy the stores reconcile against. Unrecognized operations pass
// through with their raw kind so the store can fall back to a refresh.
func translateExerciseEvent(op string, full *domain.Exercise, key primitive.ObjectID) domain.ExerciseEvent {
	switch op {
	case "insert":
		if full != nil {
			return domain.ExerciseEvent{Kind: domain.EventInsert, New: full}
		}
	case "update", "replace":
		// The fullDocument lookup can race a subsequent delete and come
		// back empty; fall through to the unknown kind in that case.
		if full != nil {
			return domain.ExerciseEvent{Kind: domain.EventUpdate, New: full}
		}
	case "delete":
		return domain.ExerciseEvent{Kind: domain.EventDelete, Old: &domain.Exercise{ID: key}}
	}
	return domain.ExerciseEvent{Kind: domain.EventKind(op)}
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
