package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
)

// Sample vehicles for onboarding
var catalog = []struct {
	Type  string
	Model string
}{
	{"car", "Corolla"},
	{"car", "Onix"},
	{"car", "HB20"},
	{"car", "Civic"},
	{"car", "Compass"},
	{"motorcycle", "CG 160"},
	{"motorcycle", "Fazer 250"},
	{"motorcycle", "Biz 125"},
}

var usages = []maintenance.UsageProfile{maintenance.UsageCity, maintenance.UsageHighway, maintenance.UsageMixed}

var errUnauthorized = errors.New("unauthorized")

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func postJSON(url string, in, out interface{}) (int, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := authorizedPost(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// signIn obtains a session token, registering the account on first use.
func signIn(apiURL, email, password string) (string, error) {
	var session models.SessionResponse
	status, err := postJSON(apiURL+"/auth/signin", models.SignInRequest{Email: email, Password: password}, &session)
	if err != nil {
		return "", err
	}
	if status == http.StatusOK {
		return session.Token, nil
	}
	if status != http.StatusUnauthorized {
		return "", fmt.Errorf("sign in failed with status: %d", status)
	}

	status, err = postJSON(apiURL+"/auth/register", models.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: "Odometer Simulator",
	}, &session)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("%w: register failed with status: %d", errUnauthorized, status)
	}
	log.WithField("email", email).Info("Registered simulator account")
	return session.Token, nil
}

func randomIntake(rng *rand.Rand, now time.Time) models.IntakeRequest {
	entry := catalog[rng.Intn(len(catalog))]
	usage := usages[rng.Intn(len(usages))]
	req := models.IntakeRequest{
		Type:      entry.Type,
		Model:     entry.Model,
		Year:      2012 + rng.Intn(13),
		UsageType: string(usage),
	}
	if rng.Intn(5) == 0 {
		req.IsZeroKm = true
		return req
	}
	req.CurrentKm = 5000 + rng.Intn(120000)

	monthsAgo := func(n int) *time.Time {
		t := now.AddDate(0, -rng.Intn(n)-1, 0)
		return &t
	}
	req.LastOilChange = monthsAgo(8)
	if rng.Intn(2) == 0 {
		km := req.CurrentKm - rng.Intn(min(req.CurrentKm, 12000))
		req.LastOilChangeKm = &km
	}
	if rng.Intn(2) == 0 {
		req.LastTireChange = monthsAgo(40)
	}
	if rng.Intn(2) == 0 {
		req.LastBrakeChange = monthsAgo(24)
	}
	if rng.Intn(3) == 0 {
		req.LastBatteryChange = monthsAgo(36)
	}
	return req
}

func createVehicle(apiURL string, req models.IntakeRequest) (string, error) {
	var vehicle models.Vehicle
	status, err := postJSON(apiURL+"/vehicles", req, &vehicle)
	if err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("vehicle creation failed with status: %d", status)
	}
	if vehicle.ID.IsZero() {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicle.ID.Hex(),
		"type":       req.Type,
		"model":      req.Model,
		"usage":      req.UsageType,
	}).Info("Created vehicle")

	return vehicle.ID.Hex(), nil
}

// monthlyDistance draws the distance driven in one simulated month, within
// 25% of the usage average.
func monthlyDistance(rng *rand.Rand, usage maintenance.UsageProfile) int {
	avg := float64(usage.AverageDistancePerMonth())
	km := int(avg * (0.75 + rng.Float64()*0.5))
	if km < 1 {
		km = 1
	}
	return km
}

func sendOdometer(apiURL, vehicleID string, km int) (*models.Vehicle, int, error) {
	var result struct {
		Vehicle *models.Vehicle `json:"vehicle"`
		Alerts  []models.Alert  `json:"alerts"`
	}
	status, err := postJSON(apiURL+"/vehicles/"+vehicleID+"/odometer",
		models.OdometerUpdate{Mode: models.OdometerMonthly, Km: km}, &result)
	if err != nil {
		return nil, 0, err
	}
	if status != http.StatusOK {
		return nil, 0, fmt.Errorf("odometer update failed with status: %d", status)
	}
	return result.Vehicle, len(result.Alerts), nil
}

type vehicleState struct {
	VehicleID string
	Usage     maintenance.UsageProfile
}

func simulateVehicle(ctx context.Context, apiURL string, s vehicleState, interval time.Duration, rng *rand.Rand) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		km := monthlyDistance(rng, s.Usage)
		vehicle, alerts, err := sendOdometer(apiURL, s.VehicleID, km)
		if err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to send odometer update")
			continue
		}
		fields := log.Fields{"vehicle_id": s.VehicleID, "driven_km": km, "alerts": alerts}
		if vehicle != nil {
			fields["current_km"] = vehicle.CurrentKm
		}
		log.WithFields(fields).Info("Sent odometer update")
	}
}

func main() {
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	vehicleCount := 3
	if val := os.Getenv("SIM_VEHICLES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			vehicleCount = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	if authToken == "" {
		email := os.Getenv("SIM_EMAIL")
		if email == "" {
			email = "simulator@mecsentinel.local"
		}
		password := os.Getenv("SIM_PASSWORD")
		if password == "" {
			password = "simulator-password"
		}
		token, err := signIn(apiURL, email, password)
		if err != nil {
			log.WithError(err).Fatal("Failed to authenticate simulator")
		}
		authToken = token
	}

	log.WithFields(log.Fields{
		"vehicles": vehicleCount,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting odometer simulation")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	states := make([]vehicleState, 0, vehicleCount)
	for i := 0; i < vehicleCount; i++ {
		req := randomIntake(rng, time.Now())
		id, err := createVehicle(apiURL, req)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		states = append(states, vehicleState{VehicleID: id, Usage: maintenance.UsageProfile(req.UsageType)})
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure the API is reachable and the account is valid. Exiting.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i, s := range states {
		wg.Add(1)
		go func(s vehicleState, seed int64) {
			defer wg.Done()
			simulateVehicle(ctx, apiURL, s, interval, rand.New(rand.NewSource(seed)))
		}(s, rng.Int63()+int64(i))
	}

	log.Info("Odometer simulation started")
	wg.Wait()
	log.Info("Odometer simulation stopped")
}
