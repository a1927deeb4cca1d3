package db

import (
	"context"
	"time"

	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoHistoryCollection implements HistoryCollection for MongoDB.
type MongoHistoryCollection struct {
	Collection *mongo.Collection
}

// InsertHistory stores one or more service records.
func (c *MongoHistoryCollection) InsertHistory(ctx context.Context, records ...models.MaintenanceHistory) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(records) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(records))
	for _, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		docs = append(docs, r)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindHistory returns every record of a vehicle, newest first.
func (c *MongoHistoryCollection) FindHistory(ctx context.Context, vehicleID string) ([]models.MaintenanceHistory, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "performed_at_date", Value: -1}, {Key: "performed_at_km", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.MaintenanceHistory{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
