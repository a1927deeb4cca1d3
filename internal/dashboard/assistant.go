package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/llm"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/ukydev/mecsentinel/internal/models"
)

// Rules returns the effective rule of every category for a vehicle.
func (s *Service) Rules(ctx context.Context, userID, vehicleID string) ([]maintenance.Rule, error) {
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	_, rules, err := s.schedulerFor(ctx, vehicle)
	return rules, err
}

// SuggestRules asks the assistant for intervals and stores them. Rules the
// user already adjusted are left alone.
func (s *Service) SuggestRules(ctx context.Context, userID, vehicleID string) (*models.RuleSuggestion, error) {
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Rules.FindRules(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	adjusted := make(map[maintenance.Category]bool, len(stored))
	for _, r := range stored {
		if r.UserAdjusted {
			adjusted[r.Category] = true
		}
	}

	suggestion := s.advisor.SuggestRules(ctx, vehicle.Snapshot())
	now := s.now()
	for _, r := range suggestion.Rules {
		if adjusted[r.Category] || !r.AISuggested {
			continue
		}
		err := s.store.Rules.UpsertRule(ctx, models.MaintenanceRule{
			VehicleID: vehicleID,
			Rule:      r,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store %s rule: %w", r.Category, err)
		}
	}

	rules, err := s.Rules(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"vehicle_id": vehicleID, "skipped": len(adjusted)}).Info("Maintenance rules suggested")
	return &models.RuleSuggestion{Rules: rules, Explanation: suggestion.Explanation}, nil
}

// AdjustRule stores a user edit of one category's interval.
func (s *Service) AdjustRule(ctx context.Context, userID, vehicleID, category string, adj models.RuleAdjustment) (*maintenance.Rule, error) {
	c, err := maintenance.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	rules, err := s.Rules(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	var current maintenance.Rule
	for _, r := range rules {
		if r.Category == c {
			current = r
		}
	}
	updated, err := current.Adjust(adj.IntervalMonths, adj.IntervalKm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now := s.now()
	if err := s.store.Rules.UpsertRule(ctx, models.MaintenanceRule{
		VehicleID: vehicleID,
		Rule:      updated,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to store rule: %w", err)
	}
	return &updated, nil
}

// Health returns the assistant's analysis of the vehicle's current items.
func (s *Service) Health(ctx context.Context, userID, vehicleID string) (*models.HealthReport, error) {
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	sched, _, err := s.schedulerFor(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, sched, vehicle)
	if err != nil {
		return nil, err
	}
	report := s.advisor.AnalyzeHealth(ctx, vehicle.Snapshot(), items)
	return &report, nil
}

// Chat sends a question to the mechanic assistant and stores both turns.
// An empty conversation id starts a new conversation.
func (s *Service) Chat(ctx context.Context, userID, vehicleID string, req models.ChatRequest) (*models.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	vehicle, err := s.vehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	var previous []models.ChatMessage
	if conversationID == "" {
		conversationID = uuid.NewString()
	} else {
		previous, err = s.store.Chat.FindConversation(ctx, conversationID, chatHistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		for _, m := range previous {
			if m.UserID != userID || m.VehicleID != vehicleID {
				return nil, ErrForbidden
			}
		}
	}

	conversation := make([]llm.Message, 0, len(previous)+1)
	for _, m := range previous {
		role := llm.RoleUser
		if m.Role == models.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		conversation = append(conversation, llm.Message{Role: role, Content: m.Content})
	}
	conversation = append(conversation, llm.Message{Role: llm.RoleUser, Content: message})

	asked := s.now()
	reply := s.advisor.Chat(ctx, vehicle.Snapshot(), conversation)

	question := models.ChatMessage{
		ConversationID: conversationID,
		UserID:         userID,
		VehicleID:      vehicleID,
		Role:           models.ChatRoleUser,
		Content:        message,
		CreatedAt:      asked,
	}
	answer := question
	answer.Role = models.ChatRoleAssistant
	answer.Content = reply
	answer.CreatedAt = s.now()

	if err := s.store.Chat.InsertMessages(ctx, question, answer); err != nil {
		return nil, fmt.Errorf("failed to store conversation: %w", err)
	}
	return &models.ChatResponse{ConversationID: conversationID, Reply: answer}, nil
}
