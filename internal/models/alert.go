package models

import (
	"time"

	"github.com/ukydev/mecsentinel/internal/maintenance"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertSeverity is the display level of an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// SeverityFor maps an item status to an alert severity.
func SeverityFor(s maintenance.Status) AlertSeverity {
	switch s {
	case maintenance.StatusCritical:
		return SeverityCritical
	case maintenance.StatusAttention:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Alert represents a maintenance notice raised for a vehicle.
type Alert struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	VehicleID       string               `json:"vehicle_id" bson:"vehicle_id"`
	MaintenanceType maintenance.Category `json:"type" bson:"maintenance_type"`
	Severity        AlertSeverity        `json:"severity" bson:"severity"`
	Message         string               `json:"message" bson:"message"`
	Seen            bool                 `json:"seen" bson:"seen"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
}

// NewAlert builds an unseen alert for a scheduled item.
func NewAlert(vehicleID string, it maintenance.Item, now time.Time) Alert {
	return Alert{
		VehicleID:       vehicleID,
		MaintenanceType: it.Category,
		Severity:        SeverityFor(it.Status),
		Message:         maintenance.AlertMessage(it),
		CreatedAt:       now,
	}
}
