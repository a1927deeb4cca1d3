package models

import (
	"time"

	"github.com/ukydev/mecsentinel/internal/maintenance"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a vehicle registered by a user.
type Vehicle struct {
	ID                primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	UserID            string                   `bson:"user_id" json:"user_id"`
	Type              string                   `bson:"type" json:"type"` // "car", "motorcycle" or "other"
	Model             string                   `bson:"model" json:"model"`
	Year              int                      `bson:"year" json:"year"`
	IsZeroKm          bool                     `bson:"is_zero_km" json:"is_zero_km"`
	CurrentKm         int                      `bson:"current_km" json:"current_km"`
	UsageType         maintenance.UsageProfile `bson:"usage_type" json:"usage_type"`
	AverageKmPerMonth int                      `bson:"average_km_per_month" json:"average_km_per_month"`
	CreatedAt         time.Time                `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time                `bson:"updated_at" json:"updated_at"`
}

// Snapshot returns the read-only view the scheduler works from.
func (v *Vehicle) Snapshot() maintenance.Vehicle {
	return maintenance.Vehicle{
		ID:              v.ID.Hex(),
		Kind:            v.Type,
		Model:           v.Model,
		Year:            v.Year,
		CurrentDistance: v.CurrentKm,
		Usage:           v.UsageType,
	}
}

// IntakeRequest is the onboarding questionnaire. Last service dates and
// odometer readings are optional and only recorded when present.
type IntakeRequest struct {
	Type                string     `json:"type"`
	Model               string     `json:"model"`
	Year                int        `json:"year"`
	IsZeroKm            bool       `json:"is_zero_km"`
	CurrentKm           int        `json:"current_km"`
	UsageType           string     `json:"usage_type"`
	LastOilChange       *time.Time `json:"last_oil_change,omitempty"`
	LastOilChangeKm     *int       `json:"last_oil_change_km,omitempty"`
	LastTireChange      *time.Time `json:"last_tire_change,omitempty"`
	LastTireChangeKm    *int       `json:"last_tire_change_km,omitempty"`
	LastBrakeChange     *time.Time `json:"last_brake_change,omitempty"`
	LastBrakeChangeKm   *int       `json:"last_brake_change_km,omitempty"`
	LastBatteryChange   *time.Time `json:"last_battery_change,omitempty"`
	LastBatteryChangeKm *int       `json:"last_battery_change_km,omitempty"`
}

// LastChanges maps the reported services to their categories. Categories
// with neither a date nor a reading are left out.
func (r IntakeRequest) LastChanges() maintenance.History {
	out := make(maintenance.History)
	add := func(c maintenance.Category, t *time.Time, km *int) {
		var e maintenance.HistoryEntry
		if t != nil && !t.IsZero() {
			d := t.UTC()
			e.Date = &d
		}
		if km != nil {
			v := *km
			e.Distance = &v
		}
		if !e.IsZero() {
			out[c] = e
		}
	}
	add(maintenance.CategoryOil, r.LastOilChange, r.LastOilChangeKm)
	add(maintenance.CategoryTires, r.LastTireChange, r.LastTireChangeKm)
	add(maintenance.CategoryBrakes, r.LastBrakeChange, r.LastBrakeChangeKm)
	add(maintenance.CategoryBattery, r.LastBatteryChange, r.LastBatteryChangeKm)
	return out
}

// Odometer update modes.
const (
	OdometerMonthly  = "monthly"
	OdometerAbsolute = "odometer"
)

// OdometerUpdate either adds a distance driven (monthly) or sets an
// absolute odometer reading.
type OdometerUpdate struct {
	Mode string `json:"mode"`
	Km   int    `json:"km"`
}
