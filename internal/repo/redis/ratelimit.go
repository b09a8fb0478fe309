package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

var fixedWindowScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimiter admits at most a fixed number of calls per key and window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type fixedWindowLimiter struct {
	client goredis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *goredis.Client, cfg *config.Config) (RateLimiter, error) {
	return newFixedWindowLimiter(client, "crm:ratelimit", cfg.RateLimit.Limit, cfg.RateLimit.Window)
}

func newFixedWindowLimiter(client goredis.Scripter, prefix string, limit int, window time.Duration) (*fixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	return &fixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}, nil
}

func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("run rate limit script: %w", err)
	}
	return count <= int64(l.limit), nil
}
