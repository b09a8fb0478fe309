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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	// UpsertBySubject returns the user bound to the identity's subject,
	// creating it on first sight. The email follows the identity
	// provider; the display name only seeds a new user.
	UpsertBySubject(ctx context.Context, identity models.Identity) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update UserProfileUpdate) (*models.User, error)
}

type UserProfileUpdate struct {
	Name      string
	Email     string
	AvatarKey *string
}

type userRepo struct {
	baseRepo[models.User]
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepo{baseRepo: newBaseRepo[models.User](db, collUsers)}
}

func (r *userRepo) UpsertBySubject(ctx context.Context, identity models.Identity) (*models.User, error) {
	now := time.Now().UTC()
	name := strings.TrimSpace(identity.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(identity.Email, "@")
	}

	set := bson.M{"updated_at": now}
	if identity.Email != "" {
		set["email"] = strings.ToLower(strings.TrimSpace(identity.Email))
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"name":       name,
			"created_at": now,
		},
	}

	filter := bson.M{"subject_id": identity.SubjectID}
	opts := options.FindOneAndUpdate().SetUpsert(true)
	user, err := r.findOneAndUpdate(ctx, filter, update, opts)
	if errors.Is(err, models.ErrDuplicate) {
		// a concurrent first login inserted the user; the retry matches it
		user, err = r.findOneAndUpdate(ctx, filter, update, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update UserProfileUpdate) (*models.User, error) {
	set := bson.M{
		"name":       update.Name,
		"updated_at": time.Now().UTC(),
	}
	if update.Email != "" {
		set["email"] = update.Email
	}
	if update.AvatarKey != nil {
		set["avatar_key"] = *update.AvatarKey
	}

	user, err := r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}
