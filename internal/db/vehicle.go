package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return err
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", ErrNotFound)
	}

	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle); err != nil {
		return nil, notFound(err, "vehicle")
	}
	return &vehicle, nil
}

// FindLatestVehicle returns the most recently created vehicle of a user.
func (c *MongoVehicleCollection) FindLatestVehicle(ctx context.Context, userID string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&vehicle); err != nil {
		return nil, notFound(err, "vehicle")
	}
	return &vehicle, nil
}

// UpdateOdometer sets the current km of a vehicle.
func (c *MongoVehicleCollection) UpdateOdometer(ctx context.Context, id string, km int) error {
	if c.Collection == nil {
		return errNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", ErrNotFound)
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"current_km": km, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return notFound(mongo.ErrNoDocuments, "vehicle")
	}
	return nil
}
