package models

import (
	"time"

	"github.com/ukydev/mecsentinel/internal/maintenance"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceHistory represents a service performed on a vehicle.
type MaintenanceHistory struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	VehicleID       string               `json:"vehicle_id" bson:"vehicle_id"`
	MaintenanceType maintenance.Category `json:"maintenance_type" bson:"maintenance_type"` // one of the categories or "other"
	MaintenanceName string               `json:"maintenance_name" bson:"maintenance_name"`
	PerformedAtDate *time.Time           `json:"performed_at_date,omitempty" bson:"performed_at_date,omitempty"`
	PerformedAtKm   *int                 `json:"performed_at_km,omitempty" bson:"performed_at_km,omitempty"`
	Notes           string               `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
}

// Entry returns the record as a scheduler history entry.
func (h MaintenanceHistory) Entry() maintenance.HistoryEntry {
	return maintenance.HistoryEntry{Date: h.PerformedAtDate, Distance: h.PerformedAtKm}
}

// BuildHistory keeps the most recent record per known category. A record
// is more recent when it has the later date, or the higher km when dates
// are missing or equal. Records of unknown categories are ignored.
func BuildHistory(records []MaintenanceHistory) maintenance.History {
	history := make(maintenance.History)
	for _, rec := range records {
		if !rec.MaintenanceType.Valid() {
			continue
		}
		entry := rec.Entry()
		if entry.IsZero() {
			continue
		}
		if cur, ok := history[rec.MaintenanceType]; !ok || newer(entry, cur) {
			history[rec.MaintenanceType] = entry
		}
	}
	return history
}

func newer(a, b maintenance.HistoryEntry) bool {
	if a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date) {
		return a.Date.After(*b.Date)
	}
	if a.Distance != nil && b.Distance != nil && *a.Distance != *b.Distance {
		return *a.Distance > *b.Distance
	}
	if a.Date != nil && b.Date == nil {
		return true
	}
	return false
}

// MaintenanceRule is a per-vehicle interval override.
type MaintenanceRule struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID        string             `json:"vehicle_id" bson:"vehicle_id"`
	maintenance.Rule `bson:",inline"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// Rules unwraps stored rules for the scheduler.
func Rules(stored []MaintenanceRule) []maintenance.Rule {
	out := make([]maintenance.Rule, 0, len(stored))
	for _, r := range stored {
		out = append(out, r.Rule)
	}
	return out
}

// RuleAdjustment is the body of a user edit to one rule.
type RuleAdjustment struct {
	IntervalMonths int `json:"interval_months"`
	IntervalKm     int `json:"interval_km"`
}

// RuleSuggestion is the assistant output for one vehicle.
type RuleSuggestion struct {
	Rules       []maintenance.Rule `json:"rules"`
	Explanation string             `json:"explanation"`
}

// HealthReport is the assistant's analysis of the vehicle.
type HealthReport struct {
	OverallHealth   maintenance.Health `json:"overall_health"`
	Summary         string             `json:"summary"`
	AttentionPoints []string           `json:"attention_points"`
	Recommendations []string           `json:"recommendations"`
}
