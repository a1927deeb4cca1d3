package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("not found")

	errNilCollection = errors.New("mongo collection is nil")
)

// Collection names.
const (
	UsersCollection       = "users"
	VehiclesCollection    = "vehicles"
	HistoryCollectionName = "maintenance_history"
	RulesCollection       = "maintenance_rules"
	AlertsCollection      = "alerts"
	ChatCollectionName    = "chat_messages"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups every collection used by the API.
type Store struct {
	Users    UserCollection
	Vehicles VehicleCollection
	History  HistoryCollection
	Rules    RuleCollection
	Alerts   AlertCollection
	Chat     ChatCollection
}

// NewStore wires the Mongo implementations against database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Users:    &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Vehicles: &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		History:  &MongoHistoryCollection{Collection: database.Collection(HistoryCollectionName)},
		Rules:    &MongoRuleCollection{Collection: database.Collection(RulesCollection)},
		Alerts:   &MongoAlertCollection{Collection: database.Collection(AlertsCollection)},
		Chat:     &MongoChatCollection{Collection: database.Collection(ChatCollectionName)},
	}
}

// EnsureIndexes creates the indexes the queries rely on. It is safe to run
// on every start.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		VehiclesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		HistoryCollectionName: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "maintenance_type", Value: 1}}},
		},
		RulesCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "maintenance_type", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AlertsCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		ChatCollectionName: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
