package db

import (
	"context"

	"github.com/ukydev/mecsentinel/internal/models"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindLatestVehicle(ctx context.Context, userID string) (*models.Vehicle, error)
	UpdateOdometer(ctx context.Context, id string, km int) error
}

// HistoryCollection defines the interface for maintenance history operations.
type HistoryCollection interface {
	InsertHistory(ctx context.Context, records ...models.MaintenanceHistory) error
	FindHistory(ctx context.Context, vehicleID string) ([]models.MaintenanceHistory, error)
}

// RuleCollection defines the interface for maintenance rule operations.
type RuleCollection interface {
	FindRules(ctx context.Context, vehicleID string) ([]models.MaintenanceRule, error)
	UpsertRule(ctx context.Context, rule models.MaintenanceRule) error
}

// AlertCollection defines the interface for alert operations.
type AlertCollection interface {
	InsertAlerts(ctx context.Context, alerts ...models.Alert) error
	FindAlerts(ctx context.Context, vehicleID string, unseenOnly bool) ([]models.Alert, error)
	FindAlertByID(ctx context.Context, id string) (*models.Alert, error)
	MarkAlertSeen(ctx context.Context, id string) error
}

// ChatCollection defines the interface for chat message operations.
type ChatCollection interface {
	InsertMessages(ctx context.Context, messages ...models.ChatMessage) error
	FindConversation(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error)
}
