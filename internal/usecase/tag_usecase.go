package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type TagUsecase interface {
	Create(ctx context.Context, owner *models.User, req models.CreateTagRequest) (*models.Tag, error)
	List(ctx context.Context, owner *models.User) ([]*models.Tag, error)
	Update(ctx context.Context, owner *models.User, req models.UpdateTagRequest) (*models.Tag, error)
	Delete(ctx context.Context, owner *models.User, req models.DeleteTagRequest) error
	// Reconcile recomputes the owner's usage counters from the contacts
	// that reference each tag.
	Reconcile(ctx context.Context, owner primitive.ObjectID) (*models.ReconcileResult, error)
	ReconcileAll(ctx context.Context) (*models.ReconcileResult, error)
}

type tagUsecase struct {
	tagRepo     mongodb.TagRepository
	contactRepo mongodb.ContactRepository
	activities  ActivityUsecase
}

func NewTagUsecase(
	tagRepo mongodb.TagRepository,
	contactRepo mongodb.ContactRepository,
	activities ActivityUsecase,
) TagUsecase {
	return &tagUsecase{
		tagRepo:     tagRepo,
		contactRepo: contactRepo,
		activities:  activities,
	}
}

func (uc *tagUsecase) Create(ctx context.Context, owner *models.User, req models.CreateTagRequest) (*models.Tag, error) {
	name := strings.TrimSpace(req.TagName)
	if name == "" {
		return nil, models.NewValidationError("tag name is required")
	}
	color, err := normalizeColor(req.Color)
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{
		TagName:   name,
		Color:     color,
		CreatedBy: owner.ID,
	}
	if err := uc.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("tag %q already exists: %w", name, models.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionCreate,
		EntityType: models.EntityTag,
		EntityID:   tag.ID.Hex(),
		EntityName: tag.TagName,
	})
	return tag, nil
}

func (uc *tagUsecase) List(ctx context.Context, owner *models.User) ([]*models.Tag, error) {
	tags, err := uc.tagRepo.List(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (uc *tagUsecase) Update(ctx context.Context, owner *models.User, req models.UpdateTagRequest) (*models.Tag, error) {
	id, err := models.ParseObjectID(req.TagID)
	if err != nil {
		return nil, err
	}

	var update mongodb.TagUpdate
	if req.TagName != nil {
		name := strings.TrimSpace(*req.TagName)
		if name == "" {
			return nil, models.NewValidationError("tag name cannot be empty")
		}
		update.Name = &name
	}
	if req.Color != nil {
		color, err := normalizeColor(*req.Color)
		if err != nil {
			return nil, err
		}
		update.Color = &color
	}

	tag, err := uc.tagRepo.Update(ctx, owner.ID, id, update)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("tag name already in use: %w", models.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionUpdate,
		EntityType: models.EntityTag,
		EntityID:   tag.ID.Hex(),
		EntityName: tag.TagName,
	})
	return tag, nil
}

func (uc *tagUsecase) Delete(ctx context.Context, owner *models.User, req models.DeleteTagRequest) error {
	id, err := models.ParseObjectID(req.ID)
	if err != nil {
		return err
	}
	tag, err := uc.tagRepo.Delete(ctx, owner.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(owner),
		Action:     models.ActionDelete,
		EntityType: models.EntityTag,
		EntityID:   tag.ID.Hex(),
		EntityName: tag.TagName,
	})
	return nil
}

func (uc *tagUsecase) Reconcile(ctx context.Context, owner primitive.ObjectID) (*models.ReconcileResult, error) {
	tags, err := uc.tagRepo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	usage, err := uc.contactRepo.TagUsage(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count tag references: %w", err)
	}

	live := make(map[primitive.ObjectID]int64, len(usage))
	for _, u := range usage {
		live[u.TagID] = u.Count
	}

	result := &models.ReconcileResult{Success: true, TagsChecked: len(tags)}
	repairs := make(map[primitive.ObjectID]int64)
	for _, tag := range tags {
		actual := live[tag.ID]
		if tag.UsageCount == actual {
			continue
		}
		repairs[tag.ID] = actual
		result.Drift += abs(tag.UsageCount - actual)
	}
	if len(repairs) == 0 {
		return result, nil
	}

	if err := uc.tagRepo.SetUsageCounts(ctx, owner, repairs); err != nil {
		return nil, fmt.Errorf("failed to repair tag usage: %w", err)
	}
	result.TagsRepaired = len(repairs)
	log.Infow(ctx, "reconciled tag usage",
		"owner", owner.Hex(),
		"tags_repaired", result.TagsRepaired,
		"drift", result.Drift,
	)
	return result, nil
}

func (uc *tagUsecase) ReconcileAll(ctx context.Context) (*models.ReconcileResult, error) {
	owners, err := uc.tagRepo.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag owners: %w", err)
	}

	total := &models.ReconcileResult{Success: true}
	for _, owner := range owners {
		res, err := uc.Reconcile(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("owner %s: %w", owner.Hex(), err)
		}
		total.TagsChecked += res.TagsChecked
		total.TagsRepaired += res.TagsRepaired
		total.Drift += res.Drift
	}
	return total, nil
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return models.DefaultTagColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", models.NewValidationError("color must be a hex value like %s", models.DefaultTagColor)
	}
	return color, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
