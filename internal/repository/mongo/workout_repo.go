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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository backed by MongoDB.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout and returns the created row.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	if workout.Title == "" || workout.UserID == primitive.NilObjectID {
		return nil, errors.New("workout title and user ID are required")
	}

	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return nil, err
	}

	return workout, nil
}

// GetByID retrieves a workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByUserID retrieves all workouts owned by a user, newest-first.
func (r *mongoWorkoutRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	var workouts []domain.Workout
	filter := bson.M{"userId": userID}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}

// Update applies a partial update to a workout owned by the given user and
// returns the updated row.
func (r *mongoWorkoutRepository) Update(ctx context.Context, id, userID primitive.ObjectID, update domain.WorkoutUpdate) (*domain.Workout, error) {
	if id == primitive.NilObjectID {
		return nil, errors.New("workout ID is required for update")
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.WorkoutDate != nil {
		set["workoutDate"] = *update.WorkoutDate
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.IsFavorite != nil {
		set["isFavorite"] = *update.IsFavorite
	}

	filter := bson.M{"_id": id, "userId": userID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Workout
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &updated, nil
}

// Delete removes a workout, ensuring it belongs to the specified user.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "userId": userID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Watch opens a change stream over the user's workout rows. See the exercise
// repository's Watch for the owner-filtering caveat on delete events.
func (r *mongoWorkoutRepository) Watch(ctx context.Context, userID primitive.ObjectID) (<-chan domain.WorkoutEvent, error) {
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

	events := make(chan domain.WorkoutEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var doc struct {
				OperationType string          `bson:"operationType"`
				FullDocument  *domain.Workout `bson:"fullDocument"`
				DocumentKey   struct {
					ID primitive.ObjectID `bson:"_id"`
				} `bson:"documentKey"`
			}
			if err := stream.Decode(&doc); err != nil {
				log.Printf("WARN: Failed to decode workout change event: %v", err)
				continue
			}

			ev := translateWorkoutEvent(doc.OperationType, doc.FullDocument, doc.DocumentKey.ID)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("WARN: Workout change stream closed with error: %v", err)
		}
	}()

	return events, nil
}

func translateWorkoutEvent(op string, full *domain.Workout, key primitive.ObjectID) domain.WorkoutEvent {
	switch op {
	case "insert":
		if full != nil {
			return domain.WorkoutEvent{Kind: domain.EventInsert, New: full}
		}
	case "update", "replace":
		if full != nil {
			return domain.WorkoutEvent{Kind: domain.EventUpdate, New: full}
		}
	case "delete":
		return domain.WorkoutEvent{Kind: domain.EventDelete, Old: &domain.Workout{ID: key}}
	}
	return domain.WorkoutEvent{Kind: domain.EventKind(op)}
}

// EnsureWorkoutIndexes creates necessary indexes for the workouts collection.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
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
