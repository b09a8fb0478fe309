package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Conversation, error)
	// Touch bumps last_updated. Concurrent touches are last-write-wins.
	Touch(ctx context.Context, owner, id primitive.ObjectID, at time.Time) (*models.Conversation, error)
	List(ctx context.Context, owner primitive.ObjectID) ([]*models.Conversation, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
}

type conversationRepo struct {
	baseRepo[models.Conversation]
}

func NewConversationRepository(db *DB) ConversationRepository {
	return &conversationRepo{baseRepo: newBaseRepo[models.Conversation](db, collConversations)}
}

func (r *conversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	id, err := r.insert(ctx, conversation)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	conversation.ID = id
	return nil
}

func (r *conversationRepo) GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Conversation, error) {
	conversation, err := r.findOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conversation, nil
}

func (r *conversationRepo) Touch(ctx context.Context, owner, id primitive.ObjectID, at time.Time) (*models.Conversation, error) {
	conversation, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "user": owner},
		bson.M{"$set": bson.M{"last_updated": at}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}
	return conversation, nil
}

func (r *conversationRepo) List(ctx context.Context, owner primitive.ObjectID) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	conversations, err := r.find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

func (r *conversationRepo) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := r.deleteOne(ctx, bson.M{"_id": id, "user": owner}); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
