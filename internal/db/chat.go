package db

import (
	"context"

	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoChatCollection implements ChatCollection for MongoDB.
type MongoChatCollection struct {
	Collection *mongo.Collection
}

// InsertMessages appends messages to their conversations.
func (c *MongoChatCollection) InsertMessages(ctx context.Context, messages ...models.ChatMessage) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(messages) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		docs = append(docs, m)
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindConversation returns up to limit most recent messages of a
// conversation in chronological order. A non-positive limit returns all.
func (c *MongoChatCollection) FindConversation(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
