package dashboard

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/mecsentinel/internal/db"
	"github.com/ukydev/mecsentinel/internal/llm"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
)

type MockVehicleCollection struct{ mock.Mock }

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	v := *args.Get(0).(*models.Vehicle)
	return &v, args.Error(1)
}

func (m *MockVehicleCollection) FindLatestVehicle(ctx context.Context, userID string) (*models.Vehicle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	v := *args.Get(0).(*models.Vehicle)
	return &v, args.Error(1)
}

func (m *MockVehicleCollection) UpdateOdometer(ctx context.Context, id string, km int) error {
	return m.Called(ctx, id, km).Error(0)
}

type MockHistoryCollection struct{ mock.Mock }

func (m *MockHistoryCollection) InsertHistory(ctx context.Context, records ...models.MaintenanceHistory) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockHistoryCollection) FindHistory(ctx context.Context, vehicleID string) ([]models.MaintenanceHistory, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).([]models.MaintenanceHistory), args.Error(1)
}

type MockRuleCollection struct{ mock.Mock }

func (m *MockRuleCollection) FindRules(ctx context.Context, vehicleID string) ([]models.MaintenanceRule, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).([]models.MaintenanceRule), args.Error(1)
}

func (m *MockRuleCollection) UpsertRule(ctx context.Context, rule models.MaintenanceRule) error {
	return m.Called(ctx, rule).Error(0)
}

type MockAlertCollection struct{ mock.Mock }

func (m *MockAlertCollection) InsertAlerts(ctx context.Context, alerts ...models.Alert) error {
	return m.Called(ctx, alerts).Error(0)
}

func (m *MockAlertCollection) FindAlerts(ctx context.Context, vehicleID string, unseenOnly bool) ([]models.Alert, error) {
	args := m.Called(ctx, vehicleID, unseenOnly)
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *MockAlertCollection) FindAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertCollection) MarkAlertSeen(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockChatCollection struct{ mock.Mock }

func (m *MockChatCollection) InsertMessages(ctx context.Context, messages ...models.ChatMessage) error {
	return m.Called(ctx, messages).Error(0)
}

func (m *MockChatCollection) FindConversation(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

type MockAdvisor struct{ mock.Mock }

func (m *MockAdvisor) SuggestRules(ctx context.Context, v maintenance.Vehicle) models.RuleSuggestion {
	return m.Called(ctx, v).Get(0).(models.RuleSuggestion)
}

func (m *MockAdvisor) AnalyzeHealth(ctx context.Context, v maintenance.Vehicle, items []maintenance.Item) models.HealthReport {
	return m.Called(ctx, v, items).Get(0).(models.HealthReport)
}

func (m *MockAdvisor) Chat(ctx context.Context, v maintenance.Vehicle, conversation []llm.Message) string {
	return m.Called(ctx, v, conversation).String(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, alert models.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *MockPublisher) Close() {}

type mocks struct {
	vehicles  *MockVehicleCollection
	history   *MockHistoryCollection
	rules     *MockRuleCollection
	alerts    *MockAlertCollection
	chat      *MockChatCollection
	advisor   *MockAdvisor
	publisher *MockPublisher
}

func newMocks() *mocks {
	return &mocks{
		vehicles:  new(MockVehicleCollection),
		history:   new(MockHistoryCollection),
		rules:     new(MockRuleCollection),
		alerts:    new(MockAlertCollection),
		chat:      new(MockChatCollection),
		advisor:   new(MockAdvisor),
		publisher: new(MockPublisher),
	}
}

func (m *mocks) store() *db.Store {
	return &db.Store{
		Vehicles: m.vehicles,
		History:  m.history,
		Rules:    m.rules,
		Alerts:   m.alerts,
		Chat:     m.chat,
	}
}

func (m *mocks) assertExpectations(t mock.TestingT) {
	m.vehicles.AssertExpectations(t)
	m.history.AssertExpectations(t)
	m.rules.AssertExpectations(t)
	m.alerts.AssertExpectations(t)
	m.chat.AssertExpectations(t)
	m.advisor.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}
