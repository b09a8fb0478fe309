package mongodb

import (
	"context"
	"fmt"
	"slices"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository interface {
	Insert(ctx context.Context, turn *models.ChatTurn) error
	// Recent returns the last limit turns of a conversation in
	// chronological order.
	Recent(ctx context.Context, owner, conversation primitive.ObjectID, limit int64) ([]*models.ChatTurn, error)
	ListByConversation(ctx context.Context, owner, conversation primitive.ObjectID) ([]*models.ChatTurn, error)
	DeleteByConversation(ctx context.Context, owner, conversation primitive.ObjectID) (int64, error)
}

type chatRepo struct {
	baseRepo[models.ChatTurn]
}

func NewChatRepository(db *DB) ChatRepository {
	return &chatRepo{baseRepo: newBaseRepo[models.ChatTurn](db, collChats)}
}

func (r *chatRepo) Insert(ctx context.Context, turn *models.ChatTurn) error {
	id, err := r.insert(ctx, turn)
	if err != nil {
		return fmt.Errorf("failed to insert chat turn: %w", err)
	}
	turn.ID = id
	return nil
}

func (r *chatRepo) Recent(ctx context.Context, owner, conversation primitive.ObjectID, limit int64) ([]*models.ChatTurn, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	turns, err := r.find(ctx, bson.M{"user": owner, "conversation": conversation}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent chat turns: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}

func (r *chatRepo) ListByConversation(ctx context.Context, owner, conversation primitive.ObjectID) ([]*models.ChatTurn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	turns, err := r.find(ctx, bson.M{"user": owner, "conversation": conversation}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat turns: %w", err)
	}
	return turns, nil
}

func (r *chatRepo) DeleteByConversation(ctx context.Context, owner, conversation primitive.ObjectID) (int64, error) {
	n, err := r.deleteMany(ctx, bson.M{"user": owner, "conversation": conversation})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chat turns: %w", err)
	}
	return n, nil
}
