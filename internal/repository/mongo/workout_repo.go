package mongo

import (
	"context"
	"errors"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository stores each workout as one document with its
// exercises and sets embedded, so every save replaces the whole aggregate.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{collection: db.Collection(workoutCollectionName)}
}

// Create inserts a workout. A workout that already carries an ID keeps it,
// which is how a deleted workout is restored.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID.IsZero() || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	if workout.ID.IsZero() {
		workout.ID = primitive.NewObjectID()
	}
	workout.Relink()
	return insertDocument(ctx, r.collection, workout)
}

// Update replaces the stored aggregate. The owner is part of the filter so a
// workout can never change hands.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	return replaceOwned(ctx, r.collection, workout.ID, workout.UserID, workout)
}

func (r *mongoWorkoutRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return deleteOwned(ctx, r.collection, id, userID)
}

func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	workout, err := findOne[domain.Workout](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	workout.Relink()
	return workout, nil
}

func (r *mongoWorkoutRepository) List(ctx context.Context, q repository.WorkoutQuery) ([]*domain.Workout, error) {
	filter := bson.M{"userId": q.UserID}
	if q.Status != nil {
		filter["status"] = *q.Status
	}
	if q.Templates != nil {
		filter["isTemplate"] = *q.Templates
	}

	field := workoutSortField(q.SortBy)
	workouts, err := findAll[domain.Workout](ctx, r.collection, filter, field, q.Descending, field == repository.SortName)
	if err != nil {
		return nil, err
	}
	for _, w := range workouts {
		w.Relink()
	}
	return workouts, nil
}

func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection,
		// History, newest first
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isTemplate", Value: 1}, {Key: "status", Value: 1}}},
	)
}

func workoutSortField(s string) string {
	switch s {
	case repository.SortUpdatedAt, repository.SortName, repository.SortStartedAt:
		return s
	}
	return repository.SortCreatedAt
}
