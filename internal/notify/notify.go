// Package notify pushes maintenance alerts to subscribers over MQTT.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/config"
	"github.com/ukydev/mecsentinel/internal/models"
)

const (
	publishQoS     = 1
	connectTimeout = 10 * time.Second
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher delivers alerts outside the API.
type Publisher interface {
	Publish(ctx context.Context, alert models.Alert) error
	Close()
}

// NopPublisher drops every alert. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Alert) error { return nil }
func (NopPublisher) Close()                                     {}

// client is the subset of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes alerts as JSON to <prefix>/vehicles/<id>/alerts.
type MQTTPublisher struct {
	client client
	prefix string
}

// AlertPayload is the message body sent for each alert.
type AlertPayload struct {
	VehicleID string    `json:"vehicle_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMQTTPublisher connects to the broker. An empty broker URL yields a
// NopPublisher.
func NewMQTTPublisher(cfg config.MQTTConfig) (Publisher, error) {
	if cfg.Broker == "" {
		log.Info("MQTT broker not configured, alerts will not be published")
		return NopPublisher{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(c, cfg.TopicPrefix), nil
}

func newMQTTPublisher(c client, prefix string) *MQTTPublisher {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "mecsentinel"
	}
	return &MQTTPublisher{client: c, prefix: prefix}
}

// Topic returns the topic alerts of a vehicle are published on.
func (p *MQTTPublisher) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/vehicles/%s/alerts", p.prefix, vehicleID)
}

// Publish sends one alert and waits for the broker acknowledgement or ctx.
func (p *MQTTPublisher) Publish(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(AlertPayload{
		VehicleID: alert.VehicleID,
		Type:      string(alert.MaintenanceType),
		Severity:  string(alert.Severity),
		Message:   alert.Message,
		CreatedAt: alert.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	token := p.client.Publish(p.Topic(alert.VehicleID), publishQoS, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish alert: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrPublishTimeout, ctx.Err())
	}
}

// Close disconnects from the broker, allowing in-flight messages a moment
// to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
