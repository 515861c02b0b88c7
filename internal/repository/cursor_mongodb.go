package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBCursorRepository implements CursorRepository using MongoDB.
// Each cursor is one document keyed by _id.
type MongoDBCursorRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBCursorRepository connects to MongoDB and returns a cursor repository.
func NewMongoDBCursorRepository(uri, database, collection string) (*MongoDBCursorRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("[MongoDBCursorRepository] Connected to %s/%s", database, collection)
	return &MongoDBCursorRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

type cursorDocument struct {
	Key       string    `bson:"_id"`
	Value     int64     `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// GetInt64 returns the stored value for key.
func (r *MongoDBCursorRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	var doc cursorDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// PutInt64 stores value under key.
func (r *MongoDBCursorRepository) PutInt64(ctx context.Context, key string, value int64) error {
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("failed to put cursor %s: %w", key, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (r *MongoDBCursorRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *MongoDBCursorRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

var _ CursorRepository = (*MongoDBCursorRepository)(nil)
