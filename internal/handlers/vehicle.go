package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/mecsentinel/internal/dashboard"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
)

// VehicleService is the application service behind the vehicle routes.
type VehicleService interface {
	Dashboard(ctx context.Context, userID string) (*dashboard.Dashboard, error)
	VehicleDashboard(ctx context.Context, userID, vehicleID string) (*dashboard.Dashboard, error)
	LatestVehicle(ctx context.Context, userID string) (*models.Vehicle, error)
	Intake(ctx context.Context, userID string, req models.IntakeRequest) (*models.Vehicle, error)
	UpdateOdometer(ctx context.Context, userID, vehicleID string, req models.OdometerUpdate) (*dashboard.OdometerResult, error)
	Rules(ctx context.Context, userID, vehicleID string) ([]maintenance.Rule, error)
	SuggestRules(ctx context.Context, userID, vehicleID string) (*models.RuleSuggestion, error)
	AdjustRule(ctx context.Context, userID, vehicleID, category string, adj models.RuleAdjustment) (*maintenance.Rule, error)
	Health(ctx context.Context, userID, vehicleID string) (*models.HealthReport, error)
	Chat(ctx context.Context, userID, vehicleID string, req models.ChatRequest) (*models.ChatResponse, error)
	Alerts(ctx context.Context, userID, vehicleID string, unseenOnly bool) ([]models.Alert, error)
	MarkAlertSeen(ctx context.Context, userID, alertID string) error
}

// VehicleHandler serves onboarding, the dashboard and the assistant.
type VehicleHandler struct {
	service VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(service VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// Intake registers a vehicle from the onboarding questionnaire.
func (h *VehicleHandler) Intake(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req models.IntakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	vehicle, err := h.service.Intake(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// Latest returns the user's most recent vehicle.
func (h *VehicleHandler) Latest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	vehicle, err := h.service.LatestVehicle(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Dashboard returns the maintenance items of the user's latest vehicle.
func (h *VehicleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	d, err := h.service.Dashboard(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// VehicleDashboard returns the maintenance items of one vehicle.
func (h *VehicleHandler) VehicleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	d, err := h.service.VehicleDashboard(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateOdometer records distance driven or a new odometer reading.
func (h *VehicleHandler) UpdateOdometer(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req models.OdometerUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	res, err := h.service.UpdateOdometer(r.Context(), claims.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rules returns the effective maintenance rules.
func (h *VehicleHandler) Rules(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	rules, err := h.service.Rules(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// SuggestRules asks the assistant for personalized rules.
func (h *VehicleHandler) SuggestRules(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	out, err := h.service.SuggestRules(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AdjustRule stores a user edit of one rule.
func (h *VehicleHandler) AdjustRule(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var adj models.RuleAdjustment
	if err := decodeJSON(r, &adj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	rule, err := h.service.AdjustRule(r.Context(), claims.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "category"), adj)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Health returns the assistant's health analysis.
func (h *VehicleHandler) Health(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	report, err := h.service.Health(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Chat answers a question to the mechanic assistant.
func (h *VehicleHandler) Chat(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	resp, err := h.service.Chat(r.Context(), claims.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Alerts lists alerts of a vehicle. ?unseen=true filters out seen ones.
func (h *VehicleHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	unseen, _ := strconv.ParseBool(r.URL.Query().Get("unseen"))
	alerts, err := h.service.Alerts(r.Context(), claims.UserID, chi.URLParam(r, "id"), unseen)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// MarkAlertSeen flags an alert as seen.
func (h *VehicleHandler) MarkAlertSeen(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkAlertSeen(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
