package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

const sessionPrefix = "crm:session:"

// SessionStore maps opaque session tokens to internal user ids.
type SessionStore interface {
	Create(ctx context.Context, userID string) (*models.SessionToken, error)
	// Resolve returns the user id bound to token, or models.ErrUnauthorized
	// when the session is unknown or expired.
	Resolve(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type sessionStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewSessionStore(client *goredis.Client, cfg *config.Config) SessionStore {
	return &sessionStore{client: client, ttl: cfg.Auth.SessionTTL}
}

func (s *sessionStore) Create(ctx context.Context, userID string) (*models.SessionToken, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionPrefix+token, userID, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &models.SessionToken{
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

func (s *sessionStore) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", models.ErrUnauthorized
	}
	userID, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, goredis.Nil) {
		return "", models.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("%w: load session: %w", models.ErrUpstreamUnavailable, err)
	}
	return userID, nil
}

func (s *sessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionPrefix+token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
