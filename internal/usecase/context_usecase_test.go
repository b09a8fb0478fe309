package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

type contextFixture struct {
	*fixture
	users         *fakeUsers
	chats         *fakeChats
	conversations *fakeConversations
	builder       ContextBuilder
}

func newContextFixture() *contextFixture {
	f := newFixture()
	cf := &contextFixture{
		fixture:       f,
		users:         newFakeUsers(f.owner),
		chats:         &fakeChats{},
		conversations: newFakeConversations(),
	}
	cf.builder = NewContextBuilder(cf.users, f.contacts, f.tags, f.activities, cf.chats)
	return cf
}

func TestContextBuilderRendersSections(t *testing.T) {
	cf := newContextFixture()
	ctx := context.Background()

	longNotes := strings.Repeat("n", 150)
	view, err := cf.contactUC().Create(ctx, cf.owner, models.CreateContactRequest{
		Name:    "Grace",
		Email:   "grace@example.com",
		Company: "Navy",
		Phone:   "555",
		Notes:   longNotes,
		Tags:    []string{"vip", "gone"},
	})
	require.NoError(t, err)
	gone, err := cf.tags.GetByKey(ctx, cf.owner.ID, "gone")
	require.NoError(t, err)
	_, err = cf.tags.Delete(ctx, cf.owner.ID, gone.ID)
	require.NoError(t, err)

	conv := &models.Conversation{User: cf.owner.ID}
	require.NoError(t, cf.conversations.Create(ctx, conv))
	base := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	for i, sender := range []models.Sender{models.SenderUser, models.SenderAI} {
		require.NoError(t, cf.chats.Insert(ctx, &models.ChatTurn{
			User:         cf.owner.ID,
			Conversation: conv.ID,
			Sender:       sender,
			Message:      "turn " + string(sender),
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	doc := cf.builder.Build(ctx, cf.owner.ID.Hex(), "Who should I call?", conv.ID.Hex())

	assert.Contains(t, doc, "USER PROFILE:\n• Name: Ada\n• Email: ada@example.com")
	assert.Contains(t, doc, "• Total Contacts: 1\n")
	assert.Contains(t, doc, "• Total Activities: 1\n")
	assert.Contains(t, doc, "• Total Tags: 1\n")
	assert.Contains(t, doc, "• Available Tags: vip\n")
	assert.Contains(t, doc, "• Grace (grace@example.com) | Company: Navy | Phone: 555 | Tags: vip | Last Contact: "+
		view.LastInteraction.UTC().Format("2006-01-02")+" | Notes: "+strings.Repeat("n", 100)+"...\n")
	assert.Contains(t, doc, "• create on contact: Grace (")
	assert.Contains(t, doc, "CONVERSATION HISTORY:\nUser (09:30): turn user\nAI (09:31): turn ai\n")
	assert.Contains(t, doc, "CURRENT USER MESSAGE:\n\"Who should I call?\"")
	assert.Contains(t, doc, "INSTRUCTIONS:")
	assert.NotContains(t, doc, "gone")

	sections := []string{"USER PROFILE:", "CRM DATA SUMMARY:", "RECENT CONTACTS", "RECENT ACTIVITIES", "CONVERSATION HISTORY:", "CURRENT USER MESSAGE:", "INSTRUCTIONS:"}
	last := -1
	for _, s := range sections {
		i := strings.Index(doc, s)
		require.Greater(t, i, last, s)
		last = i
	}
}

func TestContextBuilderEmptyData(t *testing.T) {
	cf := newContextFixture()

	doc := cf.builder.Build(context.Background(), cf.owner.ID.Hex(), "hello", "")

	assert.Contains(t, doc, "RECENT CONTACTS (Last 10):\nNo contacts found.\n")
	assert.Contains(t, doc, "RECENT ACTIVITIES (Last 10):\nNo recent activities.\n")
	assert.Contains(t, doc, "CONVERSATION HISTORY:\nThis is the start of your conversation.\n")
	assert.Contains(t, doc, "• Available Tags: None\n")
}

func TestContextBuilderLimitsRecentData(t *testing.T) {
	cf := newContextFixture()
	ctx := context.Background()
	for i := range 12 {
		createContact(t, cf.fixture, string(rune('a'+i))+"@example.com")
	}

	doc := cf.builder.Build(ctx, cf.owner.ID.Hex(), "hi", "")
	section := doc[strings.Index(doc, "RECENT CONTACTS"):strings.Index(doc, "RECENT ACTIVITIES")]
	assert.Equal(t, 10, strings.Count(section, "• "))
	assert.Contains(t, doc, "• Total Contacts: 12\n")
}

func TestContextBuilderFallback(t *testing.T) {
	message := `What about "quotes" and {{braces}}?`
	tests := []struct {
		name   string
		setup  func(cf *contextFixture)
		userID func(cf *contextFixture) string
		convID string
	}{
		{
			name:   "malformed user id",
			userID: func(*contextFixture) string { return "nope" },
		},
		{
			name:   "unknown user",
			userID: func(*contextFixture) string { return primitive.NewObjectID().Hex() },
		},
		{
			name:   "malformed conversation id",
			userID: func(cf *contextFixture) string { return cf.owner.ID.Hex() },
			convID: "zzz",
		},
		{
			name:   "store failure",
			setup:  func(cf *contextFixture) { cf.activities.failRead = true },
			userID: func(cf *contextFixture) string { return cf.owner.ID.Hex() },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := newContextFixture()
			if tt.setup != nil {
				tt.setup(cf)
			}
			doc := cf.builder.Build(context.Background(), tt.userID(cf), message, tt.convID)
			assert.Equal(t, FallbackContext(message), doc)
			assert.Contains(t, doc, message)
			assert.NotContains(t, doc, "USER PROFILE:")
		})
	}
}
