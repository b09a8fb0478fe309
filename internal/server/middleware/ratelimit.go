package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type RateLimitConfig struct {
	Skipper Skipper
	Limiter Limiter
	// KeyFunc identifies the caller; defaults to the session user id, then
	// the client IP.
	KeyFunc func(c echo.Context) string
}

// RateLimit rejects callers over their budget with 429. A limiter that
// cannot be reached fails closed with 503.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Limiter == nil {
		panic("Limiter is required to use RateLimit")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.KeyFunc == nil {
		config.KeyFunc = rateLimitKey
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}
			key := c.Path() + ":" + config.KeyFunc(c)
			allowed, err := config.Limiter.Allow(c.Request().Context(), key)
			if err != nil {
				return fmt.Errorf("%w: rate limiter: %v", models.ErrUpstreamUnavailable, err)
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please slow down")
			}
			return next(c)
		}
	}
}

func rateLimitKey(c echo.Context) string {
	if id := GetUserID(c); id != "" {
		return "user:" + id
	}
	return "ip:" + c.RealIP()
}
