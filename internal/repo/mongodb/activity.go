package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityRepository interface {
	Insert(ctx context.Context, activity *models.Activity) error
	// ListByUser returns the user's activities newest first. An empty
	// entityType matches every type.
	ListByUser(ctx context.Context, user primitive.ObjectID, entityType models.EntityType, limit int64) ([]*models.Activity, error)
	Count(ctx context.Context, user primitive.ObjectID) (int64, error)
	CountSince(ctx context.Context, user primitive.ObjectID, since time.Time) (int64, error)
	// CountPerDay buckets activities since the given instant by UTC day.
	CountPerDay(ctx context.Context, user primitive.ObjectID, since time.Time) ([]models.DayCount, error)
}

type activityRepo struct {
	baseRepo[models.Activity]
}

func NewActivityRepository(db *DB) ActivityRepository {
	return &activityRepo{baseRepo: newBaseRepo[models.Activity](db, collActivities)}
}

func (r *activityRepo) Insert(ctx context.Context, activity *models.Activity) error {
	id, err := r.insert(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	activity.ID = id
	return nil
}

func (r *activityRepo) ListByUser(ctx context.Context, user primitive.ObjectID, entityType models.EntityType, limit int64) ([]*models.Activity, error) {
	filter := bson.M{"user": user}
	if entityType != "" {
		filter["entity_type"] = entityType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	activities, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

func (r *activityRepo) Count(ctx context.Context, user primitive.ObjectID) (int64, error) {
	n, err := r.count(ctx, bson.M{"user": user})
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return n, nil
}

func (r *activityRepo) CountSince(ctx context.Context, user primitive.ObjectID, since time.Time) (int64, error) {
	n, err := r.count(ctx, bson.M{"user": user, "timestamp": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("failed to count recent activities: %w", err)
	}
	return n, nil
}

func (r *activityRepo) CountPerDay(ctx context.Context, user primitive.ObjectID, since time.Time) ([]models.DayCount, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"user": user, "timestamp": bson.M{"$gte": since}}},
		bson.M{"$group": bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$timestamp",
			}},
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	}
	days, err := aggregate[models.DayCount](ctx, r.coll, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities per day: %w", err)
	}
	return days, nil
}
