package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/tmplx"
)

const (
	// ApologyReply replaces the model output when the completion fails.
	ApologyReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."

	conversationTitleRunes = 50
)

type ChatUsecase interface {
	// Send runs one chat exchange: the user turn is stored, the model is
	// prompted with the CRM context and its reply is stored and returned.
	// A model failure yields the apology reply, never an error.
	Send(ctx context.Context, user *models.User, req models.ChatRequest) (*models.ChatReply, error)
	ListConversations(ctx context.Context, user *models.User) ([]*models.Conversation, error)
	CreateConversation(ctx context.Context, user *models.User, req models.CreateConversationRequest) (*models.Conversation, error)
	GetConversation(ctx context.Context, user *models.User, id string) (*models.ConversationDetail, error)
	DeleteConversation(ctx context.Context, user *models.User, id string) error
}

type chatUsecase struct {
	conversationRepo mongodb.ConversationRepository
	chatRepo         mongodb.ChatRepository
	contextBuilder   ContextBuilder
	completer        llm.Completer
	now              func() time.Time
}

func NewChatUsecase(
	conversationRepo mongodb.ConversationRepository,
	chatRepo mongodb.ChatRepository,
	contextBuilder ContextBuilder,
	completer llm.Completer,
) ChatUsecase {
	return &chatUsecase{
		conversationRepo: conversationRepo,
		chatRepo:         chatRepo,
		contextBuilder:   contextBuilder,
		completer:        completer,
		now:              time.Now,
	}
}

func (uc *chatUsecase) Send(ctx context.Context, user *models.User, req models.ChatRequest) (*models.ChatReply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, models.NewValidationError("message is required")
	}

	conversation, err := uc.openConversation(ctx, user, req.ConversationID, message)
	if err != nil {
		return nil, err
	}

	userTurn := &models.ChatTurn{
		User:         user.ID,
		Conversation: conversation.ID,
		Sender:       models.SenderUser,
		Message:      message,
		Timestamp:    uc.now().UTC(),
	}
	if err := uc.chatRepo.Insert(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	system := uc.contextBuilder.Build(ctx, user.ID.Hex(), message, conversation.ID.Hex())
	reply, err := uc.completer.Complete(ctx, llm.CompletionRequest{
		SystemInstruction: system,
		UserMessage:       message,
		Operation:         "chat",
	})
	if err != nil {
		log.Warnw(ctx, "chat completion failed, replying with apology",
			"conversation_id", conversation.ID.Hex(),
			"error", err,
		)
		reply = ApologyReply
	}

	// The exchange is stored even when the client has gone away meanwhile.
	aiTurn := &models.ChatTurn{
		User:         user.ID,
		Conversation: conversation.ID,
		Sender:       models.SenderAI,
		Message:      reply,
		Timestamp:    uc.now().UTC(),
	}
	if !aiTurn.Timestamp.After(userTurn.Timestamp) {
		aiTurn.Timestamp = userTurn.Timestamp.Add(time.Millisecond)
	}
	if err := uc.chatRepo.Insert(context.WithoutCancel(ctx), aiTurn); err != nil {
		return nil, fmt.Errorf("failed to save ai message: %w", err)
	}

	return &models.ChatReply{
		Message:        reply,
		Timestamp:      aiTurn.Timestamp,
		ConversationID: conversation.ID.Hex(),
	}, nil
}

// openConversation resolves the caller's conversation and bumps its
// last-updated time, or starts a new one titled after the message.
func (uc *chatUsecase) openConversation(ctx context.Context, user *models.User, id, message string) (*models.Conversation, error) {
	now := uc.now().UTC()
	if id == "" {
		conversation := &models.Conversation{
			User:        user.ID,
			Title:       conversationTitle(message),
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conversation, nil
	}

	oid, err := models.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	conversation, err := uc.conversationRepo.Touch(ctx, user.ID, oid, now)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}
	return conversation, nil
}

func conversationTitle(message string) string {
	r := []rune(strings.TrimSpace(message))
	if len(r) > conversationTitleRunes {
		r = r[:conversationTitleRunes]
	}
	return string(r)
}

func (uc *chatUsecase) ListConversations(ctx context.Context, user *models.User) ([]*models.Conversation, error) {
	conversations, err := uc.conversationRepo.List(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

func (uc *chatUsecase) CreateConversation(ctx context.Context, user *models.User, req models.CreateConversationRequest) (*models.Conversation, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.DefaultConversationTitle
	}
	now := uc.now().UTC()
	conversation := &models.Conversation{
		User:        user.ID,
		Title:       tmplx.Truncate(100, title),
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

func (uc *chatUsecase) GetConversation(ctx context.Context, user *models.User, id string) (*models.ConversationDetail, error) {
	oid, err := models.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	conversation, err := uc.conversationRepo.GetByID(ctx, user.ID, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	turns, err := uc.chatRepo.ListByConversation(ctx, user.ID, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if turns == nil {
		turns = []*models.ChatTurn{}
	}
	return &models.ConversationDetail{
		Success:      true,
		Conversation: conversation,
		Messages:     turns,
	}, nil
}

func (uc *chatUsecase) DeleteConversation(ctx context.Context, user *models.User, id string) error {
	oid, err := models.ParseObjectID(id)
	if err != nil {
		return err
	}
	if _, err := uc.conversationRepo.GetByID(ctx, user.ID, oid); err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	deleted, err := uc.chatRepo.DeleteByConversation(ctx, user.ID, oid)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := uc.conversationRepo.Delete(ctx, user.ID, oid); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	log.Infow(ctx, "conversation deleted", "conversation_id", id, "messages", deleted)
	return nil
}
