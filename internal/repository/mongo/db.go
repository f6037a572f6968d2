package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/fittrack/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// ConnectDB connects to uri and pings the primary. A client whose ping fails
// is disconnected before returning.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), pingTimeout)
	defer pingCancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = DisconnectDB(client)
		return nil, fmt.Errorf("ping primary: %w", err)
	}
	return client, nil
}

func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection this package owns.
// Failures are logged, not returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsureWorkoutIndexes(ctx, db.Collection(workoutCollectionName))
	EnsureNutritionEntryIndexes(ctx, db.Collection(nutritionEntryCollectionName))
}

// caseInsensitive orders strings the way the in-memory backend does.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func insertDocument(ctx context.Context, coll *mongo.Collection, doc any) (primitive.ObjectID, error) {
	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%s: inserted id is %T, not an ObjectID", coll.Name(), result.InsertedID)
	}
	return id, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// findAll sorts by field, then _id so equal keys keep insertion order.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, field string, descending, foldCase bool) ([]*T, error) {
	dir := 1
	if descending {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}})
	if foldCase {
		opts.SetCollation(caseInsensitive)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []*T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ownedBy matches the document id only when userID owns it.
func ownedBy(id, userID primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "userId": userID}
}

func replaceOwned(ctx context.Context, coll *mongo.Collection, id, userID primitive.ObjectID, doc any) error {
	if id.IsZero() {
		return fmt.Errorf("%s: id is required for update", coll.Name())
	}
	result, err := coll.ReplaceOne(ctx, ownedBy(id, userID), doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleteOwned(ctx context.Context, coll *mongo.Collection, id, userID primitive.ObjectID) error {
	result, err := coll.DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func createIndexes(ctx context.Context, coll *mongo.Collection, models ...mongo.IndexModel) {
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		log.Warnf("failed to create indexes for collection %s: %v", coll.Name(), err)
	}
}
