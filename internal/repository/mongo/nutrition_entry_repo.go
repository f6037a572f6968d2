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

const nutritionEntryCollectionName = "nutrition_entries"

type mongoNutritionEntryRepository struct {
	collection *mongo.Collection
}

func NewMongoNutritionEntryRepository(db *mongo.Database) repository.NutritionEntryRepository {
	return &mongoNutritionEntryRepository{collection: db.Collection(nutritionEntryCollectionName)}
}

func (r *mongoNutritionEntryRepository) Create(ctx context.Context, entry *domain.NutritionEntry) (primitive.ObjectID, error) {
	if entry.UserID.IsZero() || entry.FoodName == "" {
		return primitive.NilObjectID, errors.New("nutrition entry requires userId and foodName")
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	return insertDocument(ctx, r.collection, entry)
}

func (r *mongoNutritionEntryRepository) Update(ctx context.Context, entry *domain.NutritionEntry) error {
	return replaceOwned(ctx, r.collection, entry.ID, entry.UserID, entry)
}

func (r *mongoNutritionEntryRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return deleteOwned(ctx, r.collection, id, userID)
}

func (r *mongoNutritionEntryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NutritionEntry, error) {
	return findOne[domain.NutritionEntry](ctx, r.collection, bson.M{"_id": id})
}

// List returns the user's entries matching q. The logged-at range is [From, To).
func (r *mongoNutritionEntryRepository) List(ctx context.Context, q repository.EntryQuery) ([]*domain.NutritionEntry, error) {
	filter := bson.M{"userId": q.UserID}
	loggedAt := bson.M{}
	if !q.From.IsZero() {
		loggedAt["$gte"] = q.From
	}
	if !q.To.IsZero() {
		loggedAt["$lt"] = q.To
	}
	if len(loggedAt) > 0 {
		filter["loggedAt"] = loggedAt
	}
	if q.MealType != "" {
		filter["mealType"] = q.MealType
	}
	if q.FavoritesOnly {
		filter["isFavorite"] = true
	}

	field := entrySortField(q.SortBy)
	return findAll[domain.NutritionEntry](ctx, r.collection, filter, field, q.Descending, field == repository.SortFoodName)
}

func EnsureNutritionEntryIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection,
		// Daily totals scan one user's day window
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "loggedAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isFavorite", Value: 1}}},
	)
}

func entrySortField(s string) string {
	switch s {
	case repository.SortCreatedAt, repository.SortFoodName:
		return s
	}
	return repository.SortLoggedAt
}
