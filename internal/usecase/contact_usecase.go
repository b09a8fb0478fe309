package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	defaultContactPageSize = 50
	maxContactPageSize     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type ContactUsecase interface {
	Create(ctx context.Context, owner *models.User, req models.CreateContactRequest) (*models.ContactView, error)
	Get(ctx context.Context, owner *models.User, id string) (*models.ContactView, error)
	// Update patches the present fields. When tags are present only the
	// difference against the stored tags touches usage counters.
	Update(ctx context.Context, owner *models.User, req models.UpdateContactRequest) (*models.ContactView, error)
	Delete(ctx context.Context, owner *models.User, id string) error
	BulkDelete(ctx context.Context, owner *models.User, ids []string) (int64, error)
	List(ctx context.Context, owner *models.User, query models.ContactQuery) (*models.ContactList, error)
}

type contactUsecase struct {
	contactRepo mongodb.ContactRepository
	tagRepo     mongodb.TagRepository
	activities  ActivityUsecase
	now         func() time.Time
}

func NewContactUsecase(
	contactRepo mongodb.ContactRepository,
	tagRepo mongodb.TagRepository,
	activities ActivityUsecase,
) ContactUsecase {
	return &contactUsecase{
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
		activities:  activities,
		now:         time.Now,
	}
}

func (uc *contactUsecase) Create(ctx context.Context, owner *models.User, req models.CreateContactRequest) (*models.ContactView, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, models.NewValidationError("name and email are required")
	}
	if !isEmail(email) {
		return nil, models.NewValidationError("invalid email format")
	}

	exists, err := uc.contactRepo.ExistsByEmail(ctx, owner.ID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check contact email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("contact with this email already exists: %w", models.ErrDuplicate)
	}

	contact := &models.Contact{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.Company),
		Notes:   strings.TrimSpace(req.Notes),
	}
	tags, err := uc.insertContact(ctx, owner.ID, contact, req.Tags)
	if err != nil {
		return nil, err
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionCreate,
		EntityType: models.EntityContact,
		EntityID:   contact.ID.Hex(),
		EntityName: contact.Name,
	})
	return newContactView(contact, indexTags(tags)), nil
}

// insertContact acquires the tags and stores the contact. Acquired tags are
// released again when the insert fails.
func (uc *contactUsecase) insertContact(ctx context.Context, owner primitive.ObjectID, contact *models.Contact, tagNames []string) ([]*models.Tag, error) {
	tags, err := uc.acquireTags(ctx, owner, tagNames)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	contact.CreatedBy = owner
	contact.Tags = tagIDs(tags)
	contact.CreatedAt = now
	contact.UpdatedAt = now
	contact.LastInteraction = now
	if err := uc.contactRepo.Create(ctx, contact); err != nil {
		uc.releaseTags(ctx, owner, contact.Tags)
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("contact with this email already exists: %w", models.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return tags, nil
}

func (uc *contactUsecase) Get(ctx context.Context, owner *models.User, id string) (*models.ContactView, error) {
	oid, err := models.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	contact, err := uc.contactRepo.GetByID(ctx, owner.ID, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	tags, err := uc.tagRepo.FindByIDs(ctx, owner.ID, contact.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contact tags: %w", err)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionView,
		EntityType: models.EntityContact,
		EntityID:   contact.ID.Hex(),
		EntityName: contact.Name,
	})
	return newContactView(contact, indexTags(tags)), nil
}

func (uc *contactUsecase) Update(ctx context.Context, owner *models.User, req models.UpdateContactRequest) (*models.ContactView, error) {
	oid, err := models.ParseObjectID(req.ContactID)
	if err != nil {
		return nil, err
	}
	contact, err := uc.contactRepo.GetByID(ctx, owner.ID, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if err := uc.patchFields(ctx, owner.ID, contact, req); err != nil {
		return nil, err
	}

	current, err := uc.tagRepo.FindByIDs(ctx, owner.ID, contact.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contact tags: %w", err)
	}

	var (
		resolved = current
		added    []primitive.ObjectID
		removed  []primitive.ObjectID
	)
	if req.Tags != nil {
		resolved, added, removed, err = uc.diffTags(ctx, owner.ID, current, *req.Tags)
		if err != nil {
			return nil, err
		}
		contact.Tags = tagIDs(resolved)
	}

	now := uc.now().UTC()
	contact.UpdatedAt = now
	contact.LastInteraction = now
	updated, err := uc.contactRepo.Update(ctx, contact)
	if err != nil {
		uc.releaseTags(ctx, owner.ID, added)
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("contact with this email already exists: %w", models.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	uc.releaseTags(ctx, owner.ID, removed)

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionUpdate,
		EntityType: models.EntityContact,
		EntityID:   updated.ID.Hex(),
		EntityName: updated.Name,
	})
	return newContactView(updated, indexTags(resolved)), nil
}

func (uc *contactUsecase) patchFields(ctx context.Context, owner primitive.ObjectID, contact *models.Contact, req models.UpdateContactRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.NewValidationError("name cannot be empty")
		}
		contact.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !isEmail(email) {
			return models.NewValidationError("invalid email format")
		}
		if email != contact.Email {
			exists, err := uc.contactRepo.ExistsByEmail(ctx, owner, email)
			if err != nil {
				return fmt.Errorf("failed to check contact email: %w", err)
			}
			if exists {
				return fmt.Errorf("contact with this email already exists: %w", models.ErrDuplicate)
			}
		}
		contact.Email = email
	}
	if req.Phone != nil {
		contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Company != nil {
		contact.Company = strings.TrimSpace(*req.Company)
	}
	if req.Notes != nil {
		contact.Notes = strings.TrimSpace(*req.Notes)
	}
	return nil
}

// diffTags compares the contact's resolved tags with the requested names by
// key. New names are acquired; the ids of dropped tags are returned for
// release once the contact is stored.
func (uc *contactUsecase) diffTags(
	ctx context.Context,
	owner primitive.ObjectID,
	current []*models.Tag,
	names []string,
) (resolved []*models.Tag, added, removed []primitive.ObjectID, err error) {
	byKey := make(map[string]*models.Tag, len(current))
	for _, t := range current {
		byKey[t.Key] = t
	}

	wanted := models.NormalizeTagNames(names)
	keep := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		key := models.TagKey(name)
		keep[key] = struct{}{}
		if t, ok := byKey[key]; ok {
			resolved = append(resolved, t)
			continue
		}
		t, err := uc.tagRepo.Acquire(ctx, owner, name, "")
		if err != nil {
			uc.releaseTags(ctx, owner, added)
			return nil, nil, nil, fmt.Errorf("failed to acquire tag: %w", err)
		}
		resolved = append(resolved, t)
		added = append(added, t.ID)
	}
	for _, t := range current {
		if _, ok := keep[t.Key]; !ok {
			removed = append(removed, t.ID)
		}
	}
	return resolved, added, removed, nil
}

func (uc *contactUsecase) Delete(ctx context.Context, owner *models.User, id string) error {
	oid, err := models.ParseObjectID(id)
	if err != nil {
		return err
	}
	contact, err := uc.contactRepo.GetByID(ctx, owner.ID, oid)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if err := uc.contactRepo.Delete(ctx, owner.ID, oid); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	uc.releaseTags(ctx, owner.ID, contact.Tags)

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionDelete,
		EntityType: models.EntityContact,
		EntityID:   contact.ID.Hex(),
		EntityName: contact.Name,
	})
	return nil
}

func (uc *contactUsecase) BulkDelete(ctx context.Context, owner *models.User, ids []string) (int64, error) {
	oids, err := models.ParseObjectIDs(ids)
	if err != nil {
		return 0, err
	}
	contacts, err := uc.contactRepo.FindByIDs(ctx, owner.ID, oids)
	if err != nil {
		return 0, fmt.Errorf("failed to find contacts: %w", err)
	}
	if len(contacts) == 0 {
		return 0, fmt.Errorf("no contacts matched: %w", models.ErrNotFound)
	}

	found := util.ConvertList(contacts, func(c *models.Contact) primitive.ObjectID { return c.ID })
	deleted, err := uc.contactRepo.DeleteByIDs(ctx, owner.ID, found)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	for _, c := range contacts {
		uc.releaseTags(ctx, owner.ID, c.Tags)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionBulkDelete,
		EntityType: models.EntityContact,
		EntityName: fmt.Sprintf("%d contacts", deleted),
	})
	return deleted, nil
}

func (uc *contactUsecase) List(ctx context.Context, owner *models.User, query models.ContactQuery) (*models.ContactList, error) {
	page := max(query.Page, 1)
	limit := util.Clamp(query.Limit, defaultContactPageSize, 1, maxContactPageSize)

	filter := mongodb.ContactFilter{
		Search:  strings.TrimSpace(query.Search),
		Company: strings.TrimSpace(query.Company),
		SortBy:  query.SortBy,
		Desc:    !strings.EqualFold(query.SortOrder, "asc"),
		Skip:    int64((page - 1) * limit),
		Limit:   int64(limit),
	}

	var (
		result    = &mongodb.PaginateWithTotal[models.Contact]{}
		tags      []*models.Tag
		companies []string
		unmatched bool
	)
	if name := strings.TrimSpace(query.Tag); name != "" {
		tag, err := uc.tagRepo.GetByKey(ctx, owner.ID, models.TagKey(name))
		switch {
		case errors.Is(err, models.ErrNotFound):
			unmatched = true
		case err != nil:
			return nil, fmt.Errorf("failed to resolve tag filter: %w", err)
		default:
			filter.TagID = &tag.ID
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if !unmatched {
		eg.Go(func() (err error) {
			result, err = uc.contactRepo.List(egCtx, owner.ID, filter)
			return err
		})
	}
	eg.Go(func() (err error) {
		tags, err = uc.tagRepo.List(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		companies, err = uc.contactRepo.Companies(egCtx, owner.ID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	index := indexTags(tags)
	views := make([]models.ContactView, 0, len(result.Data))
	for _, c := range result.Data {
		views = append(views, *newContactView(c, index))
	}

	totalPages := int((result.Total + int64(limit) - 1) / int64(limit))
	if tags == nil {
		tags = []*models.Tag{}
	}
	if companies == nil {
		companies = []string{}
	}
	return &models.ContactList{
		Success:       true,
		Contacts:      views,
		AvailableTags: tags,
		Pagination: models.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  result.Total,
			HasMore:     page < totalPages,
		},
		Filters: models.ContactFilter{UniqueCompanies: companies},
	}, nil
}

// acquireTags acquires every distinct name. A failure releases the tags
// acquired so far.
func (uc *contactUsecase) acquireTags(ctx context.Context, owner primitive.ObjectID, names []string) ([]*models.Tag, error) {
	names = models.NormalizeTagNames(names)
	tags := make([]*models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := uc.tagRepo.Acquire(ctx, owner, name, "")
		if err != nil {
			uc.releaseTags(ctx, owner, tagIDs(tags))
			return nil, fmt.Errorf("failed to acquire tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// releaseTags decrements usage counters. Failures leave drift for tag
// reconciliation to repair.
func (uc *contactUsecase) releaseTags(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}
	if err := uc.tagRepo.AdjustUsage(ctx, owner, ids, -1); err != nil {
		log.Errorw(ctx, "failed to release tag usage", "owner", owner.Hex(), "tags", len(ids), "error", err)
	}
}

func tagIDs(tags []*models.Tag) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func indexTags(tags []*models.Tag) map[primitive.ObjectID]*models.Tag {
	index := make(map[primitive.ObjectID]*models.Tag, len(tags))
	for _, t := range tags {
		index[t.ID] = t
	}
	return index
}

// newContactView resolves tag references through index, dropping the ones
// that no longer exist.
func newContactView(c *models.Contact, index map[primitive.ObjectID]*models.Tag) *models.ContactView {
	refs := make([]models.TagRef, 0, len(c.Tags))
	for _, id := range c.Tags {
		t, ok := index[id]
		if !ok {
			continue
		}
		refs = append(refs, models.TagRef{ID: t.ID, TagName: t.TagName, Color: t.Color})
	}
	return &models.ContactView{Contact: c, Tags: refs}
}
