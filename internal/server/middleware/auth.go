package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/ctxval"
)

const contextKeyUser = "user"

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type SessionAuthConfig struct {
	Authenticator Authenticator
	CookieName    string
	// Optional lets anonymous requests through. A presented but invalid
	// session is then ignored rather than rejected.
	Optional bool
}

// SessionAuth reads the session token from the cookie or a bearer
// Authorization header and stores the resolved user on the context.
func SessionAuth(config SessionAuthConfig) echo.MiddlewareFunc {
	if config.Authenticator == nil {
		panic("Authenticator is required to use SessionAuth")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, config.CookieName)
			if token == "" {
				if config.Optional {
					return next(c)
				}
				return models.ErrUnauthorized
			}

			ctx := c.Request().Context()
			user, err := config.Authenticator.Authenticate(ctx, token)
			if err != nil {
				if config.Optional && errors.Is(err, models.ErrUnauthorized) {
					return next(c)
				}
				return err
			}

			SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// SessionToken prefers the cookie and falls back to "Authorization: Bearer".
func SessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(contextKeyUser, user)
	ctxval.SetUserID(c.Request().Context(), user.ID.Hex())
}

// CurrentUser is nil on routes without a session.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(contextKeyUser).(*models.User)
	return user
}

func GetUserID(c echo.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID.Hex()
	}
	return ctxval.UserID(c.Request().Context())
}
