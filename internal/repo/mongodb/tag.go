package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// acquireAttempts bounds the upsert retries of Acquire. The second attempt
// matches the document a concurrent upsert created.
const acquireAttempts = 3

type TagRepository interface {
	// Acquire resolves the owner's tag by name, creating it when absent,
	// and increments its usage counter in the same atomic update.
	Acquire(ctx context.Context, owner primitive.ObjectID, name, color string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Tag, error)
	GetByKey(ctx context.Context, owner primitive.ObjectID, key string) (*models.Tag, error)
	FindByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Tag, error)
	List(ctx context.Context, owner primitive.ObjectID) ([]*models.Tag, error)
	// Top returns up to limit tags ordered by usage, keeping only those used
	// at least minUsage times.
	Top(ctx context.Context, owner primitive.ObjectID, limit int64, minUsage int64) ([]*models.Tag, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, update TagUpdate) (*models.Tag, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) (*models.Tag, error)
	// AdjustUsage adds delta to the counters of ids. A decrement leaves a
	// counter that would drop below zero untouched.
	AdjustUsage(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID, delta int64) error
	SetUsageCounts(ctx context.Context, owner primitive.ObjectID, counts map[primitive.ObjectID]int64) error
	Count(ctx context.Context, owner primitive.ObjectID) (int64, error)
	CountActive(ctx context.Context, owner primitive.ObjectID) (int64, error)
	Owners(ctx context.Context) ([]primitive.ObjectID, error)
}

type TagUpdate struct {
	Name  *string
	Color *string
}

type tagRepo struct {
	baseRepo[models.Tag]
}

func NewTagRepository(db *DB) TagRepository {
	return &tagRepo{baseRepo: newBaseRepo[models.Tag](db, collTags)}
}

func (r *tagRepo) Acquire(ctx context.Context, owner primitive.ObjectID, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	key := models.TagKey(name)
	if key == "" {
		return nil, models.NewValidationError("tag name is required")
	}
	if color == "" {
		color = models.DefaultTagColor
	}

	now := time.Now().UTC()
	filter := bson.M{"created_by": owner, "name_key": key}
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"tag_name":   name,
			"color":      color,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var err error
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		var tag models.Tag
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tag)
		if err == nil {
			return &tag, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	return nil, fmt.Errorf("failed to acquire tag %q: %w", name, err)
}

func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	now := time.Now().UTC()
	tag.ID = primitive.NilObjectID
	tag.TagName = strings.TrimSpace(tag.TagName)
	tag.Key = models.TagKey(tag.TagName)
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}
	tag.CreatedAt = now
	tag.UpdatedAt = now

	id, err := r.insert(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	tag.ID = id
	return nil
}

func (r *tagRepo) GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Tag, error) {
	tag, err := r.findOne(ctx, bson.M{"_id": id, "created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) GetByKey(ctx context.Context, owner primitive.ObjectID, key string) (*models.Tag, error) {
	tag, err := r.findOne(ctx, bson.M{"created_by": owner, "name_key": key})
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) FindByIDs(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return []*models.Tag{}, nil
	}
	tags, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}, "created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) List(ctx context.Context, owner primitive.ObjectID) ([]*models.Tag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tag_name", Value: 1}})
	tags, err := r.find(ctx, bson.M{"created_by": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) Top(ctx context.Context, owner primitive.ObjectID, limit int64, minUsage int64) ([]*models.Tag, error) {
	filter := bson.M{"created_by": owner}
	if minUsage > 0 {
		filter["usage_count"] = bson.M{"$gte": minUsage}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "usage_count", Value: -1}, {Key: "tag_name", Value: 1}}).
		SetLimit(limit)
	tags, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list top tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) Update(ctx context.Context, owner, id primitive.ObjectID, update TagUpdate) (*models.Tag, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		set["tag_name"] = name
		set["name_key"] = models.TagKey(name)
	}
	if update.Color != nil {
		set["color"] = *update.Color
	}

	tag, err := r.findOneAndUpdate(ctx, bson.M{"_id": id, "created_by": owner}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) Delete(ctx context.Context, owner, id primitive.ObjectID) (*models.Tag, error) {
	tag, err := r.findOneAndDelete(ctx, bson.M{"_id": id, "created_by": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to delete tag: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) AdjustUsage(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID, delta int64) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "created_by": owner}
	if delta < 0 {
		filter["usage_count"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"usage_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := r.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to adjust tag usage: %w", err)
	}
	return nil
}

func (r *tagRepo) SetUsageCounts(ctx context.Context, owner primitive.ObjectID, counts map[primitive.ObjectID]int64) error {
	if len(counts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(counts))
	for id, n := range counts {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "created_by": owner}).
			SetUpdate(bson.M{"$set": bson.M{"usage_count": n, "updated_at": now}}))
	}
	if _, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to set tag usage: %w", err)
	}
	return nil
}

func (r *tagRepo) Count(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	n, err := r.count(ctx, bson.M{"created_by": owner})
	if err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return n, nil
}

func (r *tagRepo) CountActive(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	n, err := r.count(ctx, bson.M{"created_by": owner, "usage_count": bson.M{"$gt": 0}})
	if err != nil {
		return 0, fmt.Errorf("failed to count active tags: %w", err)
	}
	return n, nil
}

func (r *tagRepo) Owners(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.coll.Distinct(ctx, "created_by", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tag owners: %w", err)
	}
	owners := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		id, ok := v.(primitive.ObjectID)
		if !ok {
			return nil, errors.New("unexpected owner id type")
		}
		owners = append(owners, id)
	}
	return owners, nil
}
