package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

type chatFixture struct {
	owner         *models.User
	conversations *fakeConversations
	chats         *fakeChats
	completer     *fakeCompleter
	uc            ChatUsecase
}

func newChatFixture() *chatFixture {
	cf := &chatFixture{
		owner:         &models.User{ID: primitive.NewObjectID(), Name: "Ada"},
		conversations: newFakeConversations(),
		chats:         &fakeChats{},
		completer:     &fakeCompleter{reply: "Call Grace today."},
	}
	cf.uc = NewChatUsecase(cf.conversations, cf.chats, fakeContextBuilder{doc: "CONTEXT:"}, cf.completer)
	return cf
}

func TestChatSendStartsConversation(t *testing.T) {
	cf := newChatFixture()
	ctx := context.Background()
	message := "  " + strings.Repeat("é", 60) + "  "

	reply, err := cf.uc.Send(ctx, cf.owner, models.ChatRequest{Message: message})
	require.NoError(t, err)
	assert.Equal(t, "Call Grace today.", reply.Message)

	convID, err := primitive.ObjectIDFromHex(reply.ConversationID)
	require.NoError(t, err)
	conv, err := cf.conversations.GetByID(ctx, cf.owner.ID, convID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 50), conv.Title)

	turns, err := cf.chats.ListByConversation(ctx, cf.owner.ID, convID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, models.SenderUser, turns[0].Sender)
	assert.Equal(t, strings.TrimSpace(message), turns[0].Message)
	assert.Equal(t, models.SenderAI, turns[1].Sender)
	assert.Equal(t, "Call Grace today.", turns[1].Message)
	assert.True(t, turns[1].Timestamp.After(turns[0].Timestamp))
	assert.Equal(t, reply.Timestamp, turns[1].Timestamp)

	req := cf.completer.last()
	assert.Equal(t, "CONTEXT:"+strings.TrimSpace(message), req.SystemInstruction)
	assert.Equal(t, strings.TrimSpace(message), req.UserMessage)
	assert.Equal(t, "chat", req.Operation)
}

func TestChatSendContinuesConversation(t *testing.T) {
	cf := newChatFixture()
	ctx := context.Background()
	first, err := cf.uc.Send(ctx, cf.owner, models.ChatRequest{Message: "first"})
	require.NoError(t, err)

	second, err := cf.uc.Send(ctx, cf.owner, models.ChatRequest{Message: "second", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	conversations, err := cf.uc.ListConversations(ctx, cf.owner)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "first", conversations[0].Title)

	detail, err := cf.uc.GetConversation(ctx, cf.owner, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 4)
}

func TestChatSendModelFailureApologizes(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"upstream error", models.ErrModelUnavailable},
		{"timeout", context.DeadlineExceeded},
		{"empty output", errors.New("empty completion")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := newChatFixture()
			cf.completer.err = tt.err

			reply, err := cf.uc.Send(context.Background(), cf.owner, models.ChatRequest{Message: "hello"})
			require.NoError(t, err)
			assert.Equal(t, ApologyReply, reply.Message)

			require.Len(t, cf.chats.turns, 2)
			assert.Equal(t, ApologyReply, cf.chats.turns[1].Message)
		})
	}
}

func TestChatSendRejects(t *testing.T) {
	cf := newChatFixture()
	ctx := context.Background()
	stranger := &models.User{ID: primitive.NewObjectID()}
	foreign, err := cf.uc.CreateConversation(ctx, stranger, models.CreateConversationRequest{})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.ChatRequest
		want error
	}{
		{"blank message", models.ChatRequest{Message: " \n "}, models.ErrValidation},
		{"malformed conversation", models.ChatRequest{Message: "hi", ConversationID: "abc"}, models.ErrNotFound},
		{"unknown conversation", models.ChatRequest{Message: "hi", ConversationID: primitive.NewObjectID().Hex()}, models.ErrNotFound},
		{"foreign conversation", models.ChatRequest{Message: "hi", ConversationID: foreign.ID.Hex()}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cf.uc.Send(ctx, cf.owner, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, cf.chats.turns)
	assert.Empty(t, cf.completer.requests)
}

func TestChatSendKeepsTurnOrderWithFrozenClock(t *testing.T) {
	cf := newChatFixture()
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cf.uc.(*chatUsecase).now = func() time.Time { return frozen }

	_, err := cf.uc.Send(context.Background(), cf.owner, models.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	require.Len(t, cf.chats.turns, 2)
	assert.True(t, cf.chats.turns[1].Timestamp.After(cf.chats.turns[0].Timestamp))
}

func TestConversationCreateDefaults(t *testing.T) {
	cf := newChatFixture()
	conv, err := cf.uc.CreateConversation(context.Background(), cf.owner, models.CreateConversationRequest{Title: "  "})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConversationTitle, conv.Title)
	assert.Equal(t, cf.owner.ID, conv.User)
}

func TestConversationDeleteCascades(t *testing.T) {
	cf := newChatFixture()
	ctx := context.Background()
	kept, err := cf.uc.Send(ctx, cf.owner, models.ChatRequest{Message: "keep me"})
	require.NoError(t, err)
	dropped, err := cf.uc.Send(ctx, cf.owner, models.ChatRequest{Message: "drop me"})
	require.NoError(t, err)

	stranger := &models.User{ID: primitive.NewObjectID()}
	assert.ErrorIs(t, cf.uc.DeleteConversation(ctx, stranger, dropped.ConversationID), models.ErrNotFound)

	require.NoError(t, cf.uc.DeleteConversation(ctx, cf.owner, dropped.ConversationID))
	_, err = cf.uc.GetConversation(ctx, cf.owner, dropped.ConversationID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, cf.chats.turns, 2)
	for _, turn := range cf.chats.turns {
		assert.Equal(t, kept.ConversationID, turn.Conversation.Hex())
	}
}
