package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/tmplx"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	contextContacts   = 10
	contextActivities = 10
	contextTags       = 10
	contextHistory    = 10
)

const crmContextTemplate = `You are a helpful AI assistant integrated into a CRM system. You have access to the user's CRM data to provide contextual and personalized assistance.

USER PROFILE:
• Name: {{.User.Name}}
• Email: {{.User.Email}}

CRM DATA SUMMARY:
• Total Contacts: {{.TotalContacts}}
• Total Activities: {{.TotalActivities}}
• Total Tags: {{.TotalTags}}
• Available Tags: {{default "None" (join ", " .TopTags)}}

RECENT CONTACTS (Last 10):
{{range .Contacts -}}
• {{.Name}} ({{.Email}}){{with .Company}} | Company: {{.}}{{end}}{{with .Phone}} | Phone: {{.}}{{end}} | Tags: {{default "None" (join ", " .Tags)}} | Last Contact: {{default "Unknown" (date "2006-01-02" .LastInteraction)}}{{with .Notes}} | Notes: {{truncate 100 .}}{{end}}
{{else -}}
No contacts found.
{{end}}
RECENT ACTIVITIES (Last 10):
{{range .Activities -}}
• {{.Action}} on {{.EntityType}}: {{.EntityName}} ({{date "2006-01-02" .Timestamp}})
{{else -}}
No recent activities.
{{end}}
CONVERSATION HISTORY:
{{range .History -}}
{{.Speaker}} ({{date "15:04" .Time}}): {{.Message}}
{{else -}}
This is the start of your conversation.
{{end}}
CURRENT USER MESSAGE:
"{{.Message}}"

INSTRUCTIONS:
- Use the CRM context above to give personalized, relevant answers
- Help with contact management, sales insights, activity tracking and CRM best practices
- Reference specific contacts, activities or tags when it helps the user
- Only the most recent records are listed; say so when the answer may depend on older data
- Give actionable, concrete advice
- Be helpful, professional and concise
- When the question is general, relate the answer back to the user's CRM work

Please respond to the user's message using this CRM context.`

const fallbackContextFormat = `You are a helpful AI assistant for a CRM system. The user's CRM data could not be loaded right now, so answer without personalized context. You can still help with:

- General CRM best practices
- Contact management strategies
- Sales pipeline optimization
- Activity tracking recommendations
- Data organization tips

Current message: "%s"

How can I assist you with your CRM needs?`

// ContextBuilder renders the CRM context document handed to the model as
// its system instruction.
type ContextBuilder interface {
	// Build never fails: any lookup problem yields the fallback document,
	// which still carries the message verbatim. conversationID may be empty.
	Build(ctx context.Context, userID, message, conversationID string) string
}

type crmContext struct {
	User            *models.User
	TotalContacts   int64
	TotalActivities int64
	TotalTags       int64
	TopTags         []string
	Contacts        []contextContact
	Activities      []*models.Activity
	History         []contextTurn
	Message         string
}

type contextContact struct {
	Name            string
	Email           string
	Company         string
	Phone           string
	Notes           string
	Tags            []string
	LastInteraction time.Time
}

type contextTurn struct {
	Speaker string
	Time    time.Time
	Message string
}

type contextBuilder struct {
	userRepo     mongodb.UserRepository
	contactRepo  mongodb.ContactRepository
	tagRepo      mongodb.TagRepository
	activityRepo mongodb.ActivityRepository
	chatRepo     mongodb.ChatRepository
	tmpl         *tmplx.Template
}

func NewContextBuilder(
	userRepo mongodb.UserRepository,
	contactRepo mongodb.ContactRepository,
	tagRepo mongodb.TagRepository,
	activityRepo mongodb.ActivityRepository,
	chatRepo mongodb.ChatRepository,
) ContextBuilder {
	return &contextBuilder{
		userRepo:     userRepo,
		contactRepo:  contactRepo,
		tagRepo:      tagRepo,
		activityRepo: activityRepo,
		chatRepo:     chatRepo,
		tmpl:         tmplx.MustParse("crm_context", crmContextTemplate),
	}
}

func (b *contextBuilder) Build(ctx context.Context, userID, message, conversationID string) string {
	data, err := b.load(ctx, userID, conversationID)
	if err != nil {
		log.Warnw(ctx, "falling back to generic crm context", "user_id", userID, "error", err)
		return FallbackContext(message)
	}
	data.Message = message

	doc, err := b.tmpl.RenderString(data)
	if err != nil {
		log.Errorw(ctx, "failed to render crm context", "error", err)
		return FallbackContext(message)
	}
	return doc
}

// FallbackContext is the document used when the user's CRM data is not
// available.
func FallbackContext(message string) string {
	return fmt.Sprintf(fallbackContextFormat, message)
}

func (b *contextBuilder) load(ctx context.Context, userID, conversationID string) (*crmContext, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	var convID primitive.ObjectID
	if conversationID != "" {
		if convID, err = primitive.ObjectIDFromHex(conversationID); err != nil {
			return nil, fmt.Errorf("invalid conversation id: %w", err)
		}
	}

	var (
		data     = &crmContext{}
		contacts []*models.Contact
		topTags  []*models.Tag
		turns    []*models.ChatTurn
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		data.User, err = b.userRepo.GetByID(egCtx, uid)
		return err
	})
	eg.Go(func() (err error) {
		contacts, err = b.contactRepo.Recent(egCtx, uid, contextContacts)
		return err
	})
	eg.Go(func() (err error) {
		data.TotalContacts, err = b.contactRepo.Count(egCtx, uid)
		return err
	})
	eg.Go(func() (err error) {
		data.Activities, err = b.activityRepo.ListByUser(egCtx, uid, "", contextActivities)
		return err
	})
	eg.Go(func() (err error) {
		data.TotalActivities, err = b.activityRepo.Count(egCtx, uid)
		return err
	})
	eg.Go(func() (err error) {
		data.TotalTags, err = b.tagRepo.Count(egCtx, uid)
		return err
	})
	eg.Go(func() (err error) {
		topTags, err = b.tagRepo.Top(egCtx, uid, contextTags, 0)
		return err
	})
	if !convID.IsZero() {
		eg.Go(func() (err error) {
			turns, err = b.chatRepo.Recent(egCtx, uid, convID, contextHistory)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	names, err := b.contactTagNames(ctx, uid, contacts)
	if err != nil {
		return nil, err
	}

	for _, t := range topTags {
		data.TopTags = append(data.TopTags, t.TagName)
	}
	for _, c := range contacts {
		cc := contextContact{
			Name:            c.Name,
			Email:           c.Email,
			Company:         c.Company,
			Phone:           c.Phone,
			Notes:           c.Notes,
			LastInteraction: c.LastInteraction,
		}
		for _, id := range c.Tags {
			if n, ok := names[id]; ok {
				cc.Tags = append(cc.Tags, n)
			}
		}
		data.Contacts = append(data.Contacts, cc)
	}
	for _, t := range turns {
		speaker := "User"
		if t.Sender == models.SenderAI {
			speaker = "AI"
		}
		data.History = append(data.History, contextTurn{Speaker: speaker, Time: t.Timestamp, Message: t.Message})
	}
	return data, nil
}

func (b *contextBuilder) contactTagNames(ctx context.Context, owner primitive.ObjectID, contacts []*models.Contact) (map[primitive.ObjectID]string, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, c := range contacts {
		for _, id := range c.Tags {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	tags, err := b.tagRepo.FindByIDs(ctx, owner, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		names[t.ID] = t.TagName
	}
	return names, nil
}
