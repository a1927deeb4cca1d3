package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation with the mechanic assistant.
type ChatMessage struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID string             `json:"conversation_id" bson:"conversation_id"`
	UserID         string             `json:"user_id" bson:"user_id"`
	VehicleID      string             `json:"vehicle_id" bson:"vehicle_id"`
	Role           ChatRole           `json:"role" bson:"role"`
	Content        string             `json:"content" bson:"content"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// ChatRequest is a user question. An empty ConversationID starts a new conversation.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// ChatResponse carries the assistant answer.
type ChatResponse struct {
	ConversationID string      `json:"conversation_id"`
	Reply          ChatMessage `json:"reply"`
}
