package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultConversationTitle = "New Conversation"

type Conversation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Title       string             `bson:"title" json:"title"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	LastUpdated time.Time          `bson:"last_updated" json:"lastUpdated"`
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatTurn is one persisted message of a conversation. Turns are never
// modified after insertion.
type ChatTurn struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User         primitive.ObjectID `bson:"user" json:"user"`
	Conversation primitive.ObjectID `bson:"conversation" json:"conversationId"`
	Sender       Sender             `bson:"sender" json:"sender"`
	Message      string             `bson:"message" json:"message"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

type ChatReply struct {
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversationId"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type GetConversationRequest struct {
	ID string `param:"id" validate:"required"`
}

type DeleteConversationRequest struct {
	ConversationID string `query:"conversationId" validate:"required"`
}

type ConversationList struct {
	Success       bool            `json:"success"`
	Conversations []*Conversation `json:"conversations"`
}

type ConversationDetail struct {
	Success      bool          `json:"success"`
	Conversation *Conversation `json:"conversation"`
	Messages     []*ChatTurn   `json:"messages"`
}

type ConversationResponse struct {
	Success      bool          `json:"success"`
	Conversation *Conversation `json:"conversation"`
}
