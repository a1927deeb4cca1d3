package db

import (
	"context"
	"time"

	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRuleCollection implements RuleCollection for MongoDB.
type MongoRuleCollection struct {
	Collection *mongo.Collection
}

// FindRules returns the stored rules of a vehicle.
func (c *MongoRuleCollection) FindRules(ctx context.Context, vehicleID string) ([]models.MaintenanceRule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rules := []models.MaintenanceRule{}
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// UpsertRule stores the rule for its vehicle and category, replacing any
// previous one. The creation time of an existing rule is kept.
func (c *MongoRuleCollection) UpsertRule(ctx context.Context, rule models.MaintenanceRule) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now()
	filter := bson.M{"vehicle_id": rule.VehicleID, "maintenance_type": rule.Category}
	update := bson.M{
		"$set": bson.M{
			"maintenance_name": rule.Name,
			"interval_months":  rule.IntervalMonths,
			"interval_km":      rule.IntervalDistance,
			"description":      rule.Description,
			"ai_suggested":     rule.AISuggested,
			"user_adjusted":    rule.UserAdjusted,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := c.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
