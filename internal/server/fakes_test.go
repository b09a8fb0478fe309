package server

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

var testUser = &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"}

const testSession = "session-token"

type fakeAuth struct {
	loggedOut []string
}

func (f *fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.IDToken != "good" {
		return nil, models.ErrInvalidCredential
	}
	return &models.LoginResponse{
		Success: true,
		User:    &models.UserProfile{ID: testUser.ID.Hex(), Name: testUser.Name},
		Session: &models.SessionToken{Token: testSession, ExpiresAt: time.Now().Add(time.Hour)},
	}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == testSession {
		return testUser, nil
	}
	return nil, models.ErrUnauthorized
}

func (f *fakeAuth) Profile(_ context.Context, user *models.User) (*models.UserProfile, error) {
	return &models.UserProfile{ID: user.ID.Hex(), Name: user.Name, Email: user.Email}, nil
}

func (f *fakeAuth) UpdateProfile(_ context.Context, user *models.User, req models.ProfileUpdateRequest) (*models.UserProfile, error) {
	return &models.UserProfile{ID: user.ID.Hex(), Name: req.Name}, nil
}

type fakeContacts struct {
	lastQuery  models.ContactQuery
	lastUpdate models.UpdateContactRequest
	deleted    []string
}

func (f *fakeContacts) Create(_ context.Context, _ *models.User, req models.CreateContactRequest) (*models.ContactView, error) {
	return &models.ContactView{Contact: &models.Contact{Name: req.Name, Email: req.Email}, Tags: []models.TagRef{}}, nil
}

func (f *fakeContacts) Get(_ context.Context, _ *models.User, id string) (*models.ContactView, error) {
	return nil, models.ErrNotFound
}

func (f *fakeContacts) Update(_ context.Context, _ *models.User, req models.UpdateContactRequest) (*models.ContactView, error) {
	f.lastUpdate = req
	return &models.ContactView{Contact: &models.Contact{}, Tags: []models.TagRef{}}, nil
}

func (f *fakeContacts) Delete(_ context.Context, _ *models.User, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeContacts) BulkDelete(_ context.Context, _ *models.User, ids []string) (int64, error) {
	return int64(len(ids)), nil
}

func (f *fakeContacts) List(_ context.Context, _ *models.User, query models.ContactQuery) (*models.ContactList, error) {
	f.lastQuery = query
	return &models.ContactList{Success: true, Contacts: []models.ContactView{}, AvailableTags: []*models.Tag{}}, nil
}

type fakeImport struct {
	body string
}

func (f *fakeImport) Import(_ context.Context, _ *models.User, r io.Reader) (*models.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	return &models.ImportResult{TotalRows: 1, Successful: 1, Errors: []models.ImportError{}}, nil
}

type fakeTags struct {
	reconciled []primitive.ObjectID
}

func (f *fakeTags) Create(_ context.Context, _ *models.User, req models.CreateTagRequest) (*models.Tag, error) {
	return nil, models.ErrDuplicate
}

func (f *fakeTags) List(context.Context, *models.User) ([]*models.Tag, error) {
	return []*models.Tag{{TagName: "vip", Color: models.DefaultTagColor}}, nil
}

func (f *fakeTags) Update(_ context.Context, _ *models.User, req models.UpdateTagRequest) (*models.Tag, error) {
	return &models.Tag{TagName: *req.TagName}, nil
}

func (f *fakeTags) Delete(context.Context, *models.User, models.DeleteTagRequest) error {
	return nil
}

func (f *fakeTags) Reconcile(_ context.Context, owner primitive.ObjectID) (*models.ReconcileResult, error) {
	f.reconciled = append(f.reconciled, owner)
	return &models.ReconcileResult{Success: true}, nil
}

func (f *fakeTags) ReconcileAll(context.Context) (*models.ReconcileResult, error) {
	return &models.ReconcileResult{Success: true}, nil
}

type fakeChat struct{}

func (fakeChat) Send(_ context.Context, _ *models.User, req models.ChatRequest) (*models.ChatReply, error) {
	if req.Message == "" {
		return nil, models.NewValidationError("message is required")
	}
	return &models.ChatReply{Message: usecase.ApologyReply, ConversationID: "c1"}, nil
}

func (fakeChat) ListConversations(context.Context, *models.User) ([]*models.Conversation, error) {
	return []*models.Conversation{}, nil
}

func (fakeChat) CreateConversation(_ context.Context, _ *models.User, req models.CreateConversationRequest) (*models.Conversation, error) {
	return &models.Conversation{Title: req.Title}, nil
}

func (fakeChat) GetConversation(_ context.Context, _ *models.User, id string) (*models.ConversationDetail, error) {
	return nil, models.ErrNotFound
}

func (fakeChat) DeleteConversation(context.Context, *models.User, string) error {
	return nil
}

type fakeActivities struct {
	actors []*models.User
}

func (f *fakeActivities) Record(context.Context, usecase.ActivityEntry) {}

func (f *fakeActivities) Create(_ context.Context, actor *models.User, req models.CreateActivityRequest) (*models.Activity, error) {
	f.actors = append(f.actors, actor)
	return &models.Activity{Action: req.Action, EntityType: req.EntityType, EntityName: req.EntityName}, nil
}

func (f *fakeActivities) List(context.Context, *models.User, models.ActivityQuery) ([]*models.Activity, error) {
	return []*models.Activity{}, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Get(context.Context, *models.User) (*models.Dashboard, error) {
	return &models.Dashboard{Stats: models.DashboardStats{TotalContacts: 3}}, nil
}

func (fakeDashboard) Analytics(context.Context, *models.User) (*models.Analytics, error) {
	return &models.Analytics{}, nil
}

type fakeInsights struct{}

func (fakeInsights) Generate(_ context.Context, _ *models.User, req models.InsightRequest) (*models.InsightReply, error) {
	return &models.InsightReply{Success: true, Type: req.Type, Content: "ok"}, nil
}

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow(context.Context, string) (bool, error) {
	return f.allow, nil
}
