package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestSessionStore(t *testing.T) {
	srv, client := newTestClient(t)
	store := &sessionStore{client: client, ttl: time.Hour}
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	userID, err := store.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, time.Hour, srv.TTL(sessionPrefix+session.Token))

	_, err = store.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = store.Resolve(ctx, "  ")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	srv.FastForward(2 * time.Hour)
	_, err = store.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionStoreDelete(t *testing.T) {
	_, client := newTestClient(t)
	store := &sessionStore{client: client, ttl: time.Hour}
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, session.Token))
	require.NoError(t, store.Delete(ctx, session.Token))

	_, err = store.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionStoreUnavailable(t *testing.T) {
	srv, client := newTestClient(t)
	store := &sessionStore{client: client, ttl: time.Hour}
	srv.Close()

	_, err := store.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestFixedWindowLimiter(t *testing.T) {
	_, client := newTestClient(t)
	limiter, err := newFixedWindowLimiter(client, "test:ratelimit", 2, time.Minute)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}

	ok, err := limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok, "next window resets the quota")
}

func TestFixedWindowLimiterErrors(t *testing.T) {
	_, err := newFixedWindowLimiter(nil, "p", 0, time.Second)
	assert.Error(t, err)

	srv, client := newTestClient(t)
	limiter, err := newFixedWindowLimiter(client, "test:ratelimit", 1, time.Second)
	require.NoError(t, err)
	srv.Close()

	ok, err := limiter.Allow(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, ok)
}
