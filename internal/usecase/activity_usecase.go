package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/events"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type ActivityUsecase interface {
	// Record appends an activity after a committed mutation. Failures are
	// logged and swallowed.
	Record(ctx context.Context, entry ActivityEntry)
	Create(ctx context.Context, actor *models.User, req models.CreateActivityRequest) (*models.Activity, error)
	List(ctx context.Context, user *models.User, query models.ActivityQuery) ([]*models.Activity, error)
}

type ActivityEntry struct {
	Actor      *primitive.ObjectID
	Action     models.ActivityAction
	EntityType models.EntityType
	EntityID   string
	EntityName string
}

type activityUsecase struct {
	activityRepo mongodb.ActivityRepository
	publisher    events.ActivityPublisher
	now          func() time.Time
}

func NewActivityUsecase(activityRepo mongodb.ActivityRepository, publisher events.ActivityPublisher) ActivityUsecase {
	return &activityUsecase{
		activityRepo: activityRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (uc *activityUsecase) Record(ctx context.Context, entry ActivityEntry) {
	activity := &models.Activity{
		User:       entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		EntityName: entry.EntityName,
		Timestamp:  uc.now().UTC(),
	}
	if err := uc.activityRepo.Insert(ctx, activity); err != nil {
		log.Warnw(ctx, "failed to record activity",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err,
		)
		return
	}
	uc.publish(ctx, activity)
}

func (uc *activityUsecase) Create(ctx context.Context, actor *models.User, req models.CreateActivityRequest) (*models.Activity, error) {
	if !req.Action.Valid() {
		return nil, models.NewValidationError("unknown action %q", req.Action)
	}
	if !req.EntityType.Valid() {
		return nil, models.NewValidationError("unknown entity type %q", req.EntityType)
	}

	activity := &models.Activity{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		EntityName: req.EntityName,
		Timestamp:  uc.now().UTC(),
	}
	if actor != nil {
		activity.User = &actor.ID
	}
	if err := uc.activityRepo.Insert(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	uc.publish(ctx, activity)
	return activity, nil
}

func (uc *activityUsecase) List(ctx context.Context, user *models.User, query models.ActivityQuery) ([]*models.Activity, error) {
	if query.EntityType != "" && !query.EntityType.Valid() {
		return nil, models.NewValidationError("unknown entity type %q", query.EntityType)
	}
	limit := util.Clamp(query.Limit, defaultActivityLimit, 1, maxActivityLimit)
	activities, err := uc.activityRepo.ListByUser(ctx, user.ID, query.EntityType, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

func (uc *activityUsecase) publish(ctx context.Context, activity *models.Activity) {
	if err := uc.publisher.Publish(ctx, activity); err != nil {
		log.Warnw(ctx, "failed to publish activity", "activity_id", activity.ID.Hex(), "error", err)
	}
}

func actorOf(user *models.User) *primitive.ObjectID {
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
