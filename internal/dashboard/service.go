// Package dashboard implements the vehicle workflows behind the API:
// onboarding, odometer updates, the scheduling dashboard, rules and the
// assistant features.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/db"
	"github.com/ukydev/mecsentinel/internal/llm"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
	"github.com/ukydev/mecsentinel/internal/notify"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoVehicle       = errors.New("no vehicle registered")
	ErrForbidden       = errors.New("vehicle belongs to another user")
	ErrInvalidOdometer = errors.New("invalid odometer update")
	ErrInvalidInput    = errors.New("invalid input")
)

const (
	publishTimeout   = 5 * time.Second
	chatHistoryLimit = 20
	minVehicleYear   = 1900
)

// Advisor is the assistant used for rules, health and chat.
type Advisor interface {
	SuggestRules(ctx context.Context, v maintenance.Vehicle) models.RuleSuggestion
	AnalyzeHealth(ctx context.Context, v maintenance.Vehicle, items []maintenance.Item) models.HealthReport
	Chat(ctx context.Context, v maintenance.Vehicle, conversation []llm.Message) string
}

// Service wires the collections, the scheduler and the assistant.
type Service struct {
	store     *db.Store
	scheduler *maintenance.Scheduler
	advisor   Advisor
	publisher notify.Publisher
	clock     clockz.Clock
}

// NewService creates a Service. A nil publisher drops alerts and a nil
// clock uses the real clock.
func NewService(store *db.Store, scheduler *maintenance.Scheduler, advisor Advisor, publisher notify.Publisher, clock clockz.Clock) *Service {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{
		store:     store,
		scheduler: scheduler,
		advisor:   advisor,
		publisher: publisher,
		clock:     clock,
	}
}

// Dashboard is the scheduling view of a vehicle.
type Dashboard struct {
	Vehicle    *models.Vehicle    `json:"vehicle"`
	Items      []maintenance.Item `json:"items"`
	MostUrgent *maintenance.Item  `json:"most_urgent"`
	Alerts     []string           `json:"alerts"`
	Rules      []maintenance.Rule `json:"rules"`
}

// OdometerResult is returned after an odometer update.
type OdometerResult struct {
	Vehicle *models.Vehicle    `json:"vehicle"`
	Items   []maintenance.Item `json:"items"`
	Alerts  []models.Alert     `json:"alerts"`
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// Dashboard builds the view for the latest vehicle of a user.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	vehicle, err := s.LatestVehicle(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.VehicleDashboard(ctx, userID, vehicle.ID.Hex())
}

// VehicleDashboard builds the view for one vehicle of a user.
func (s *Service) VehicleDashboard(ctx context.Context, userID, vehicleID string) (*Dashboard, error) {
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	sched, rules, err := s.schedulerFor(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, sched, vehicle)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Vehicle: vehicle, Items: items, Alerts: []string{}, Rules: rules}
	if urgent, ok := sched.SelectMostUrgent(items); ok {
		d.MostUrgent = &urgent
	}
	for _, it := range items {
		if it.Status != maintenance.StatusNormal {
			d.Alerts = append(d.Alerts, maintenance.AlertMessage(it))
		}
	}
	return d, nil
}

// LatestVehicle returns the most recently registered vehicle of a user.
func (s *Service) LatestVehicle(ctx context.Context, userID string) (*models.Vehicle, error) {
	vehicle, err := s.store.Vehicles.FindLatestVehicle(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoVehicle
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return vehicle, nil
}

// Intake registers a vehicle from the onboarding questionnaire and records
// the reported last services.
func (s *Service) Intake(ctx context.Context, userID string, req models.IntakeRequest) (*models.Vehicle, error) {
	now := s.now()
	usage, err := validateIntake(req, now)
	if err != nil {
		return nil, err
	}

	km := req.CurrentKm
	if req.IsZeroKm {
		km = 0
	}
	vehicle := models.Vehicle{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		Type:              strings.TrimSpace(req.Type),
		Model:             strings.TrimSpace(req.Model),
		Year:              req.Year,
		IsZeroKm:          req.IsZeroKm,
		CurrentKm:         km,
		UsageType:         usage,
		AverageKmPerMonth: usage.AverageDistancePerMonth(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Vehicles.InsertVehicle(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	changes := req.LastChanges()
	var records []models.MaintenanceHistory
	for _, c := range maintenance.Categories() {
		last, ok := changes[c]
		if !ok {
			continue
		}
		records = append(records, models.MaintenanceHistory{
			VehicleID:       vehicle.ID.Hex(),
			MaintenanceType: c,
			MaintenanceName: c.DisplayName(),
			PerformedAtDate: last.Date,
			PerformedAtKm:   last.Distance,
			CreatedAt:       now,
		})
	}
	if len(records) > 0 {
		if err := s.store.History.InsertHistory(ctx, records...); err != nil {
			return nil, fmt.Errorf("failed to record maintenance history: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicle.ID.Hex(),
		"user_id":    userID,
		"history":    len(records),
	}).Info("Vehicle registered")
	return &vehicle, nil
}

func validateIntake(req models.IntakeRequest, now time.Time) (maintenance.UsageProfile, error) {
	var errs []error
	if strings.TrimSpace(req.Type) == "" {
		errs = append(errs, errors.New("type is required"))
	}
	if strings.TrimSpace(req.Model) == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if req.Year < minVehicleYear || req.Year > now.Year()+1 {
		errs = append(errs, fmt.Errorf("year must be between %d and %d", minVehicleYear, now.Year()+1))
	}
	if !req.IsZeroKm && req.CurrentKm < 0 {
		errs = append(errs, errors.New("current_km must not be negative"))
	}
	usage, err := maintenance.ParseUsageProfile(req.UsageType)
	if err != nil {
		errs = append(errs, err)
	}
	km := req.CurrentKm
	if req.IsZeroKm {
		km = 0
	}
	changes := req.LastChanges()
	for _, c := range maintenance.Categories() {
		last, ok := changes[c]
		if !ok {
			continue
		}
		if last.Date != nil && last.Date.After(now) {
			errs = append(errs, fmt.Errorf("last %s service is in the future", c))
		}
		if last.Distance != nil && (*last.Distance < 0 || *last.Distance > km) {
			errs = append(errs, fmt.Errorf("last %s service km must be between 0 and %d", c, km))
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return usage, nil
}

// UpdateOdometer applies a monthly distance or an absolute reading, then
// recomputes the schedule and raises alerts for items that are not normal.
// Items with a pending unseen alert of the same severity are skipped.
func (s *Service) UpdateOdometer(ctx context.Context, userID, vehicleID string, req models.OdometerUpdate) (*OdometerResult, error) {
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	var km int
	switch req.Mode {
	case models.OdometerMonthly:
		if req.Km <= 0 {
			return nil, fmt.Errorf("%w: monthly distance must be positive", ErrInvalidOdometer)
		}
		km = vehicle.CurrentKm + req.Km
	case models.OdometerAbsolute:
		if req.Km <= vehicle.CurrentKm {
			return nil, fmt.Errorf("%w: reading must be greater than %d km", ErrInvalidOdometer, vehicle.CurrentKm)
		}
		km = req.Km
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidOdometer, req.Mode)
	}

	if err := s.store.Vehicles.UpdateOdometer(ctx, vehicleID, km); err != nil {
		return nil, fmt.Errorf("failed to update odometer: %w", err)
	}
	vehicle.CurrentKm = km
	vehicle.UpdatedAt = s.now()

	sched, _, err := s.schedulerFor(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, sched, vehicle)
	if err != nil {
		return nil, err
	}

	unseen, err := s.store.Alerts.FindAlerts(ctx, vehicleID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	type alertKey struct {
		category maintenance.Category
		severity models.AlertSeverity
	}
	pending := make(map[alertKey]bool, len(unseen))
	for _, a := range unseen {
		pending[alertKey{a.MaintenanceType, a.Severity}] = true
	}

	alerts := []models.Alert{}
	for _, it := range items {
		if it.Status == maintenance.StatusNormal {
			continue
		}
		if pending[alertKey{it.Category, models.SeverityFor(it.Status)}] {
			continue
		}
		alerts = append(alerts, models.NewAlert(vehicleID, it, vehicle.UpdatedAt))
	}
	if len(alerts) > 0 {
		if err := s.store.Alerts.InsertAlerts(ctx, alerts...); err != nil {
			return nil, fmt.Errorf("failed to record alerts: %w", err)
		}
		s.publish(ctx, alerts)
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"mode":       req.Mode,
		"current_km": km,
		"alerts":     len(alerts),
	}).Info("Odometer updated")
	return &OdometerResult{Vehicle: vehicle, Items: items, Alerts: alerts}, nil
}

// publish fans alerts out. Delivery failures are logged and never fail the
// update that raised them.
func (s *Service) publish(ctx context.Context, alerts []models.Alert) {
	for _, a := range alerts {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := s.publisher.Publish(pctx, a); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"vehicle_id": a.VehicleID,
				"type":       a.MaintenanceType,
			}).Warn("Failed to publish alert")
		}
		cancel()
	}
}

// Alerts lists the alerts of a vehicle, newest first.
func (s *Service) Alerts(ctx context.Context, userID, vehicleID string, unseenOnly bool) ([]models.Alert, error) {
	if _, err := s.vehicle(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	alerts, err := s.store.Alerts.FindAlerts(ctx, vehicleID, unseenOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertSeen flags an alert of one of the user's vehicles as seen.
func (s *Service) MarkAlertSeen(ctx context.Context, userID, alertID string) error {
	alert, err := s.store.Alerts.FindAlertByID(ctx, alertID)
	if err != nil {
		return err
	}
	if _, err := s.vehicle(ctx, userID, alert.VehicleID); err != nil {
		return err
	}
	if err := s.store.Alerts.MarkAlertSeen(ctx, alertID); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

// vehicle loads a vehicle and checks that userID owns it.
func (s *Service) vehicle(ctx context.Context, userID, vehicleID string) (*models.Vehicle, error) {
	vehicle, err := s.store.Vehicles.FindVehicleByID(ctx, vehicleID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoVehicle
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if vehicle.UserID != userID {
		return nil, ErrForbidden
	}
	return vehicle, nil
}

// schedulerFor returns the scheduler with the vehicle's stored rules
// applied, along with the effective rule of every category.
func (s *Service) schedulerFor(ctx context.Context, vehicle *models.Vehicle) (*maintenance.Scheduler, []maintenance.Rule, error) {
	stored, err := s.store.Rules.FindRules(ctx, vehicle.ID.Hex())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	sched := s.scheduler.WithRules(models.Rules(stored)...)
	return sched, s.effectiveRules(stored), nil
}

func (s *Service) effectiveRules(stored []models.MaintenanceRule) []maintenance.Rule {
	byCategory := make(map[maintenance.Category]maintenance.Rule, len(stored))
	for _, r := range stored {
		byCategory[r.Category] = r.Rule
	}
	rules := make([]maintenance.Rule, 0, len(maintenance.Categories()))
	for _, c := range maintenance.Categories() {
		if r, ok := byCategory[c]; ok {
			rules = append(rules, r)
			continue
		}
		r := maintenance.DefaultRule(c)
		iv := s.scheduler.Interval(c)
		r.IntervalMonths, r.IntervalDistance = iv.Months, iv.Distance
		rules = append(rules, r)
	}
	return rules
}

func (s *Service) items(ctx context.Context, sched *maintenance.Scheduler, vehicle *models.Vehicle) ([]maintenance.Item, error) {
	records, err := s.store.History.FindHistory(ctx, vehicle.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to load maintenance history: %w", err)
	}
	return sched.BuildItems(s.now(), vehicle.Snapshot(), models.BuildHistory(records)), nil
}
