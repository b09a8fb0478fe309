package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/redis"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/storage"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
)

// AuthVerifier checks an identity provider token and extracts the identity
// it asserts.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewAuthVerifier(cfg *config.Config) AuthVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Auth.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Auth.TokenIssuer))
	}
	return &jwtVerifier{secret: []byte(cfg.Auth.TokenSecret), opts: opts}
}

func (v *jwtVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", models.ErrInvalidCredential)
	}
	return &models.Identity{
		SubjectID:   claims.Subject,
		Email:       normalizeEmail(claims.Email),
		DisplayName: strings.TrimSpace(claims.Name),
	}, nil
}

type AuthUsecase interface {
	// Login verifies the identity provider token, resolves the user and
	// opens a session.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	// Authenticate maps a session token to its user, or ErrUnauthorized.
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Profile(ctx context.Context, user *models.User) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, user *models.User, req models.ProfileUpdateRequest) (*models.UserProfile, error)
}

type authUsecase struct {
	verifier      AuthVerifier
	userRepo      mongodb.UserRepository
	sessions      redis.SessionStore
	avatars       storage.ObjectStore
	activities    ActivityUsecase
	maxImageBytes int64
}

func NewAuthUsecase(
	cfg *config.Config,
	verifier AuthVerifier,
	userRepo mongodb.UserRepository,
	sessions redis.SessionStore,
	avatars storage.ObjectStore,
	activities ActivityUsecase,
) AuthUsecase {
	return &authUsecase{
		verifier:      verifier,
		userRepo:      userRepo,
		sessions:      sessions,
		avatars:       avatars,
		activities:    activities,
		maxImageBytes: cfg.Storage.MaxBytes,
	}
}

func (uc *authUsecase) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	identity, err := uc.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.UpsertBySubject(ctx, *identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	session, err := uc.sessions.Create(ctx, user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	log.Infow(ctx, "user logged in", "user_id", user.ID.Hex())
	return &models.LoginResponse{
		Success: true,
		User:    uc.toProfile(ctx, user),
		Session: session,
	}, nil
}

func (uc *authUsecase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

func (uc *authUsecase) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.ErrUnauthorized
	}
	userID, err := uc.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("session bound to invalid user id: %w", models.ErrUnauthorized)
	}
	user, err := uc.userRepo.GetByID(ctx, oid)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("session user is gone: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

func (uc *authUsecase) Profile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	return uc.toProfile(ctx, user), nil
}

func (uc *authUsecase) UpdateProfile(ctx context.Context, user *models.User, req models.ProfileUpdateRequest) (*models.UserProfile, error) {
	update := mongodb.UserProfileUpdate{Name: strings.TrimSpace(req.Name)}
	if update.Name == "" {
		return nil, models.NewValidationError("name is required")
	}
	if email := normalizeEmail(req.Email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, models.NewValidationError("invalid email format")
		}
		update.Email = email
	}

	previous := user.AvatarKey
	var uploaded string
	if strings.HasPrefix(req.ProfileImage, "data:") {
		key, err := uc.uploadAvatar(ctx, user.ID, req.ProfileImage)
		if err != nil {
			return nil, err
		}
		uploaded = key
		update.AvatarKey = &key
	}

	updated, err := uc.userRepo.UpdateProfile(ctx, user.ID, update)
	if err != nil {
		if uploaded != "" {
			uc.deleteAvatar(ctx, uploaded)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if uploaded != "" && previous != "" {
		uc.deleteAvatar(ctx, previous)
	}

	uc.activities.Record(ctx, ActivityEntry{
		Actor:      actorOf(updated),
		Action:     models.ActionUpdate,
		EntityType: models.EntityUser,
		EntityID:   updated.ID.Hex(),
		EntityName: updated.Name,
	})
	return uc.toProfile(ctx, updated), nil
}

func (uc *authUsecase) uploadAvatar(ctx context.Context, userID primitive.ObjectID, dataURL string) (string, error) {
	img, err := storage.ParseImageDataURL(dataURL, uc.maxImageBytes)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("users/%s/%s.%s", userID.Hex(), uuid.NewString(), img.Extension())
	if err := uc.avatars.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", fmt.Errorf("failed to upload profile image: %w", err)
	}
	return key, nil
}

func (uc *authUsecase) deleteAvatar(ctx context.Context, key string) {
	if err := uc.avatars.Delete(ctx, key); err != nil {
		log.Warnw(ctx, "failed to delete profile image", "key", key, "error", err)
	}
}

// toProfile presigns the avatar. A presign failure leaves the image empty.
func (uc *authUsecase) toProfile(ctx context.Context, user *models.User) *models.UserProfile {
	profile := &models.UserProfile{
		ID:        user.ID.Hex(),
		SubjectID: user.SubjectID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.AvatarKey == "" {
		return profile
	}
	url, err := uc.avatars.PresignGet(ctx, user.AvatarKey)
	if err != nil {
		log.Warnw(ctx, "failed to presign profile image", "key", user.AvatarKey, "error", err)
		return profile
	}
	profile.ProfileImage = &url
	return profile
}
