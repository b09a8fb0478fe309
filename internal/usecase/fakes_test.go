package usecase

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store down")

type fakeTags struct {
	mu   sync.Mutex
	tags map[primitive.ObjectID]*models.Tag
	// failAcquire makes Acquire fail for the given key.
	failAcquire string
}

func newFakeTags() *fakeTags {
	return &fakeTags{tags: map[primitive.ObjectID]*models.Tag{}}
}

func (f *fakeTags) byKey(owner primitive.ObjectID, key string) *models.Tag {
	for _, t := range f.tags {
		if t.CreatedBy == owner && t.Key == key {
			return t
		}
	}
	return nil
}

func (f *fakeTags) Acquire(_ context.Context, owner primitive.ObjectID, name, color string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.TagKey(name)
	if key == "" {
		return nil, models.NewValidationError("tag name is required")
	}
	if key == f.failAcquire {
		return nil, errStoreDown
	}
	if t := f.byKey(owner, key); t != nil {
		t.UsageCount++
		cp := *t
		return &cp, nil
	}
	if color == "" {
		color = models.DefaultTagColor
	}
	t := &models.Tag{
		ID:         primitive.NewObjectID(),
		TagName:    strings.TrimSpace(name),
		Key:        key,
		Color:      color,
		UsageCount: 1,
		CreatedBy:  owner,
	}
	f.tags[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeTags) Create(_ context.Context, tag *models.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag.Key = models.TagKey(tag.TagName)
	if f.byKey(tag.CreatedBy, tag.Key) != nil {
		return models.ErrDuplicate
	}
	tag.ID = primitive.NewObjectID()
	cp := *tag
	f.tags[tag.ID] = &cp
	return nil
}

func (f *fakeTags) GetByID(_ context.Context, owner, id primitive.ObjectID) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok || t.CreatedBy != owner {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTags) GetByKey(_ context.Context, owner primitive.ObjectID, key string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.byKey(owner, key)
	if t == nil {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTags) FindByIDs(_ context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tag
	for _, id := range ids {
		if t, ok := f.tags[id]; ok && t.CreatedBy == owner {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTags) List(_ context.Context, owner primitive.ObjectID) ([]*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tag
	for _, t := range f.tags {
		if t.CreatedBy == owner {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TagName < out[j].TagName })
	return out, nil
}

func (f *fakeTags) Top(ctx context.Context, owner primitive.ObjectID, limit int64, minUsage int64) ([]*models.Tag, error) {
	all, _ := f.List(ctx, owner)
	all = slices.DeleteFunc(all, func(t *models.Tag) bool { return t.UsageCount < minUsage })
	sort.SliceStable(all, func(i, j int) bool { return all[i].UsageCount > all[j].UsageCount })
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeTags) Update(_ context.Context, owner, id primitive.ObjectID, update mongodb.TagUpdate) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok || t.CreatedBy != owner {
		return nil, models.ErrNotFound
	}
	if update.Name != nil {
		key := models.TagKey(*update.Name)
		if other := f.byKey(owner, key); other != nil && other.ID != id {
			return nil, models.ErrDuplicate
		}
		t.TagName = *update.Name
		t.Key = key
	}
	if update.Color != nil {
		t.Color = *update.Color
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTags) Delete(_ context.Context, owner, id primitive.ObjectID) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok || t.CreatedBy != owner {
		return nil, models.ErrNotFound
	}
	delete(f.tags, id)
	return t, nil
}

func (f *fakeTags) AdjustUsage(_ context.Context, owner primitive.ObjectID, ids []primitive.ObjectID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		t, ok := f.tags[id]
		if !ok || t.CreatedBy != owner || seen[id] {
			continue
		}
		seen[id] = true
		if t.UsageCount+delta < 0 {
			continue
		}
		t.UsageCount += delta
	}
	return nil
}

func (f *fakeTags) SetUsageCounts(_ context.Context, owner primitive.ObjectID, counts map[primitive.ObjectID]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range counts {
		if t, ok := f.tags[id]; ok && t.CreatedBy == owner {
			t.UsageCount = n
		}
	}
	return nil
}

func (f *fakeTags) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	all, _ := f.List(ctx, owner)
	return int64(len(all)), nil
}

func (f *fakeTags) CountActive(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	all, _ := f.Top(ctx, owner, 1<<30, 1)
	return int64(len(all)), nil
}

func (f *fakeTags) Owners(context.Context) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, t := range f.tags {
		if !seen[t.CreatedBy] {
			seen[t.CreatedBy] = true
			out = append(out, t.CreatedBy)
		}
	}
	return out, nil
}

// usage returns the counter of the owner's tag with the given name, or -1.
func (f *fakeTags) usage(owner primitive.ObjectID, name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t := f.byKey(owner, models.TagKey(name)); t != nil {
		return t.UsageCount
	}
	return -1
}

type fakeContacts struct {
	mu        sync.Mutex
	contacts  map[primitive.ObjectID]*models.Contact
	order     []primitive.ObjectID
	failWrite bool
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{contacts: map[primitive.ObjectID]*models.Contact{}}
}

func (f *fakeContacts) Create(_ context.Context, c *models.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errStoreDown
	}
	for _, other := range f.contacts {
		if other.CreatedBy == c.CreatedBy && other.Email == c.Email {
			return models.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	cp.Tags = slices.Clone(c.Tags)
	f.contacts[c.ID] = &cp
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeContacts) GetByID(_ context.Context, owner, id primitive.ObjectID) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok || c.CreatedBy != owner {
		return nil, models.ErrNotFound
	}
	cp := *c
	cp.Tags = slices.Clone(c.Tags)
	return &cp, nil
}

func (f *fakeContacts) ExistsByEmail(_ context.Context, owner primitive.ObjectID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.CreatedBy == owner && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContacts) Update(_ context.Context, c *models.Contact) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return nil, errStoreDown
	}
	existing, ok := f.contacts[c.ID]
	if !ok || existing.CreatedBy != c.CreatedBy {
		return nil, models.ErrNotFound
	}
	cp := *c
	cp.Tags = slices.Clone(c.Tags)
	f.contacts[c.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeContacts) Delete(_ context.Context, owner, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok || c.CreatedBy != owner {
		return models.ErrNotFound
	}
	delete(f.contacts, id)
	return nil
}

func (f *fakeContacts) FindByIDs(_ context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok && c.CreatedBy == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeContacts) DeleteByIDs(_ context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := f.contacts[id]; ok && c.CreatedBy == owner {
			delete(f.contacts, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeContacts) owned(owner primitive.ObjectID) []*models.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Contact
	for _, id := range f.order {
		if c, ok := f.contacts[id]; ok && c.CreatedBy == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeContacts) List(_ context.Context, owner primitive.ObjectID, filter mongodb.ContactFilter) (*mongodb.PaginateWithTotal[models.Contact], error) {
	var matched []*models.Contact
	for _, c := range f.owned(owner) {
		if filter.TagID != nil && !slices.Contains(c.Tags, *filter.TagID) {
			continue
		}
		if filter.Company != "" && c.Company != filter.Company {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Email), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, c)
	}
	total := int64(len(matched))
	start := min(filter.Skip, total)
	end := min(start+filter.Limit, total)
	return &mongodb.PaginateWithTotal[models.Contact]{Total: total, Data: matched[start:end]}, nil
}

func (f *fakeContacts) Recent(_ context.Context, owner primitive.ObjectID, limit int64) ([]*models.Contact, error) {
	all := f.owned(owner)
	sort.SliceStable(all, func(i, j int) bool { return all[i].LastInteraction.After(all[j].LastInteraction) })
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeContacts) Count(_ context.Context, owner primitive.ObjectID) (int64, error) {
	return int64(len(f.owned(owner))), nil
}

func (f *fakeContacts) CountSince(_ context.Context, owner primitive.ObjectID, since time.Time) (int64, error) {
	var n int64
	for _, c := range f.owned(owner) {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeContacts) Companies(_ context.Context, owner primitive.ObjectID) ([]string, error) {
	var out []string
	for _, c := range f.owned(owner) {
		if c.Company != "" && !slices.Contains(out, c.Company) {
			out = append(out, c.Company)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeContacts) CountByCompany(_ context.Context, owner primitive.ObjectID, limit int64) ([]models.CompanyCount, error) {
	counts := map[string]int64{}
	for _, c := range f.owned(owner) {
		counts[c.Company]++
	}
	var out []models.CompanyCount
	for company, n := range counts {
		out = append(out, models.CompanyCount{Company: company, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Company < out[j].Company
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeContacts) TagUsage(_ context.Context, owner primitive.ObjectID) ([]models.TagUsage, error) {
	counts := map[primitive.ObjectID]int64{}
	for _, c := range f.owned(owner) {
		for _, id := range c.Tags {
			counts[id]++
		}
	}
	var out []models.TagUsage
	for id, n := range counts {
		out = append(out, models.TagUsage{TagID: id, Count: n})
	}
	return out, nil
}

type fakeActivities struct {
	mu         sync.Mutex
	activities []*models.Activity
	failInsert bool
	failRead   bool
}

func (f *fakeActivities) Insert(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return errStoreDown
	}
	a.ID = primitive.NewObjectID()
	cp := *a
	f.activities = append(f.activities, &cp)
	return nil
}

func (f *fakeActivities) all() []*models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.activities)
}

func (f *fakeActivities) ofUser(user primitive.ObjectID) []*models.Activity {
	var out []*models.Activity
	for _, a := range f.all() {
		if a.User != nil && *a.User == user {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeActivities) ListByUser(_ context.Context, user primitive.ObjectID, entityType models.EntityType, limit int64) ([]*models.Activity, error) {
	if f.failRead {
		return nil, errStoreDown
	}
	var out []*models.Activity
	for _, a := range f.ofUser(user) {
		if entityType == "" || a.EntityType == entityType {
			out = append(out, a)
		}
	}
	slices.Reverse(out)
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivities) Count(_ context.Context, user primitive.ObjectID) (int64, error) {
	if f.failRead {
		return 0, errStoreDown
	}
	return int64(len(f.ofUser(user))), nil
}

func (f *fakeActivities) CountSince(_ context.Context, user primitive.ObjectID, since time.Time) (int64, error) {
	var n int64
	for _, a := range f.ofUser(user) {
		if !a.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeActivities) CountPerDay(_ context.Context, user primitive.ObjectID, since time.Time) ([]models.DayCount, error) {
	counts := map[string]int64{}
	for _, a := range f.ofUser(user) {
		if !a.Timestamp.Before(since) {
			counts[a.Timestamp.UTC().Format("2006-01-02")]++
		}
	}
	var out []models.DayCount
	for day, n := range counts {
		out = append(out, models.DayCount{Day: day, Count: n})
	}
	return out, nil
}

// actions lists the recorded actions on an entity type, oldest first.
func (f *fakeActivities) actions(entityType models.EntityType) []models.ActivityAction {
	var out []models.ActivityAction
	for _, a := range f.all() {
		if a.EntityType == entityType {
			out = append(out, a.Action)
		}
	}
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Activity
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, a)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) UpsertBySubject(_ context.Context, identity models.Identity) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.SubjectID == identity.SubjectID {
			u.Email = identity.Email
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{
		ID:        primitive.NewObjectID(),
		SubjectID: identity.SubjectID,
		Name:      identity.DisplayName,
		Email:     identity.Email,
	}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, update mongodb.UserProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.Name = update.Name
	if update.Email != "" {
		u.Email = update.Email
	}
	if update.AvatarKey != nil {
		u.AvatarKey = *update.AvatarKey
	}
	cp := *u
	return &cp, nil
}

type fakeConversations struct {
	mu            sync.Mutex
	conversations map[primitive.ObjectID]*models.Conversation
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{conversations: map[primitive.ObjectID]*models.Conversation{}}
}

func (f *fakeConversations) Create(_ context.Context, c *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	f.conversations[c.ID] = &cp
	return nil
}

func (f *fakeConversations) GetByID(_ context.Context, owner, id primitive.ObjectID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok || c.User != owner {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConversations) Touch(_ context.Context, owner, id primitive.ObjectID, at time.Time) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok || c.User != owner {
		return nil, models.ErrNotFound
	}
	c.LastUpdated = at
	cp := *c
	return &cp, nil
}

func (f *fakeConversations) List(_ context.Context, owner primitive.ObjectID) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Conversation
	for _, c := range f.conversations {
		if c.User == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	return out, nil
}

func (f *fakeConversations) Delete(_ context.Context, owner, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok || c.User != owner {
		return models.ErrNotFound
	}
	delete(f.conversations, id)
	return nil
}

type fakeChats struct {
	mu    sync.Mutex
	turns []*models.ChatTurn
}

func (f *fakeChats) Insert(_ context.Context, t *models.ChatTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = primitive.NewObjectID()
	cp := *t
	f.turns = append(f.turns, &cp)
	return nil
}

func (f *fakeChats) ListByConversation(_ context.Context, owner, conversation primitive.ObjectID) ([]*models.ChatTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ChatTurn
	for _, t := range f.turns {
		if t.User == owner && t.Conversation == conversation {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeChats) Recent(ctx context.Context, owner, conversation primitive.ObjectID, limit int64) ([]*models.ChatTurn, error) {
	all, _ := f.ListByConversation(ctx, owner, conversation)
	if int64(len(all)) > limit {
		all = all[int64(len(all))-limit:]
	}
	return all, nil
}

func (f *fakeChats) DeleteByConversation(_ context.Context, owner, conversation primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.turns)
	f.turns = slices.DeleteFunc(f.turns, func(t *models.ChatTurn) bool {
		return t.User == owner && t.Conversation == conversation
	})
	return int64(before - len(f.turns)), nil
}

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) last() llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeContextBuilder struct {
	doc string
}

func (f fakeContextBuilder) Build(_ context.Context, _, message, _ string) string {
	return f.doc + message
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]string
	err      error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]string{}}
}

func (f *fakeSessions) Create(_ context.Context, userID string) (*models.SessionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	token := primitive.NewObjectID().Hex()
	f.sessions[token] = userID
	return &models.SessionToken{Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	uid, ok := f.sessions[token]
	if !ok {
		return "", models.ErrUnauthorized
	}
	return uid, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://objects.test/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) EnsureBucket(context.Context) error { return nil }

type fixture struct {
	owner      *models.User
	tags       *fakeTags
	contacts   *fakeContacts
	activities *fakeActivities
	publisher  *fakePublisher
	activityUC ActivityUsecase
}

func newFixture() *fixture {
	f := &fixture{
		owner:      &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"},
		tags:       newFakeTags(),
		contacts:   newFakeContacts(),
		activities: &fakeActivities{},
		publisher:  &fakePublisher{},
	}
	f.activityUC = NewActivityUsecase(f.activities, f.publisher)
	return f
}

func (f *fixture) contactUC() ContactUsecase {
	return NewContactUsecase(f.contacts, f.tags, f.activityUC)
}

func (f *fixture) tagUC() TagUsecase {
	return NewTagUsecase(f.tags, f.contacts, f.activityUC)
}

func (f *fixture) importUC() ImportUsecase {
	return NewImportUsecase(f.contacts, f.tags, f.activityUC)
}
