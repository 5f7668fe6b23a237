package mongo

import (
	"context"
	"log"
	"time"

	"fittrack/internal/domain"
	"fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const muscleGroupCollectionName = "muscle_groups"

// defaultMuscleGroups seeds the reference set on first start. Small integer
// ids are part of the data model; exercises reference them as foreign keys.
var defaultMuscleGroups = []string{"shoulders", "chest", "arms", "back", "legs"}

// mongoMuscleGroupRepository implements repository.MuscleGroupRepository
type mongoMuscleGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoMuscleGroupRepository creates a new MuscleGroup repository backed by MongoDB.
func NewMongoMuscleGroupRepository(db *mongo.Database) repository.MuscleGroupRepository {
	return &mongoMuscleGroupRepository{
		collection: db.Collection(muscleGroupCollectionName),
	}
}

// GetAll returns the full reference set, ordered by name.
func (r *mongoMuscleGroupRepository) GetAll(ctx context.Context) ([]domain.MuscleGroup, error) {
	var groups []domain.MuscleGroup

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

// SeedMuscleGroups inserts the default reference set if the collection is
// empty. The set is read-only afterwards; this application never mutates it.
func SeedMuscleGroups(ctx context.Context, collection *mongo.Collection) error {
	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(defaultMuscleGroups))
	for i, name := range defaultMuscleGroups {
		docs = append(docs, domain.MuscleGroup{
			ID:        i + 1,
			Name:      name,
			CreatedAt: now,
		})
	}

	_, err = collection.InsertMany(ctx, docs)
	if err != nil {
		log.Printf("WARN: Failed to seed muscle groups: %v", err)
		return err
	}
	log.Printf("Seeded %d muscle groups", len(docs))
	return nil
}
