// Package records persists the history of confirmed bookings.
package records

import (
	"context"
	"fmt"
	"time"

	"meetsy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores confirmed booking records. Persistence is best-effort:
// a write failure never fails the booking itself.
type Repository interface {
	Save(ctx context.Context, record models.BookingRecord) error
	ListByRequester(ctx context.Context, requesterID string, limit int64) ([]models.BookingRecord, error)
}

const (
	dbName         = "meetsy"
	collectionName = "bookings"
)

// MongoRecordRepo implements Repository on MongoDB.
type MongoRecordRepo struct {
	coll *mongo.Collection
}

func NewMongoRecordRepo(client *mongo.Client) *MongoRecordRepo {
	return &MongoRecordRepo{coll: client.Database(dbName).Collection(collectionName)}
}

func (r *MongoRecordRepo) Save(ctx context.Context, record models.BookingRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to save booking record: %w", err)
	}
	return nil
}

func (r *MongoRecordRepo) ListByRequester(ctx context.Context, requesterID string, limit int64) ([]models.BookingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"requesterId": requesterID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.BookingRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode booking records: %w", err)
	}
	return out, nil
}
