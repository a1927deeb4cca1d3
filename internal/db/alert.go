package db

import (
	"context"
	"fmt"

	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAlertCollection implements AlertCollection for MongoDB.
type MongoAlertCollection struct {
	Collection *mongo.Collection
}

// InsertAlerts stores alerts. Alerts without an ID get a new one.
func (c *MongoAlertCollection) InsertAlerts(ctx context.Context, alerts ...models.Alert) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(alerts) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(alerts))
	for _, a := range alerts {
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		docs = append(docs, a)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindAlerts lists the alerts of a vehicle, newest first.
func (c *MongoAlertCollection) FindAlerts(ctx context.Context, vehicleID string, unseenOnly bool) ([]models.Alert, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := bson.M{"vehicle_id": vehicleID}
	if unseenOnly {
		filter["seen"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	alerts := []models.Alert{}
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindAlertByID finds an alert by its ID.
func (c *MongoAlertCollection) FindAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid alert ID: %w", ErrNotFound)
	}
	var alert models.Alert
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&alert); err != nil {
		return nil, notFound(err, "alert")
	}
	return &alert, nil
}

// MarkAlertSeen flags an alert as seen.
func (c *MongoAlertCollection) MarkAlertSeen(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid alert ID: %w", ErrNotFound)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"seen": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return notFound(mongo.ErrNoDocuments, "alert")
	}
	return nil
}
