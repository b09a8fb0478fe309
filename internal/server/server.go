package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/redis"
	pkgmdw "github.com/nguyentranbao-ct/crm-assistant/internal/server/middleware"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
)

type RouterParams struct {
	fx.In

	Config  *config.Config
	Auth    usecase.AuthUsecase
	Limiter redis.RateLimiter `optional:"true"`

	Health     HealthController
	Auths      AuthController
	Contacts   ContactController
	Tags       TagController
	Chat       ChatController
	Activities ActivityController
	Dashboard  DashboardController
}

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	limited bool
}

// NewRouter builds the echo instance with the middleware chain and the
// /api route table. Every /api route except login, logout and activity
// creation requires a session.
func NewRouter(p RouterParams) *echo.Echo {
	conf := p.Config
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))
	e.Server.ReadTimeout = conf.Server.ReadTimeout
	e.Server.WriteTimeout = conf.Server.WriteTimeout

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path != "/health" && path != "/metrics"
		},
		RequestBody: func(c echo.Context) bool {
			// login tokens and profile images stay out of the logs
			return !strings.HasPrefix(c.Path(), "/api/auth/")
		},
	}

	e.Use(pkgmdw.CORS(conf.Server.AllowOrigins))
	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))

	e.GET("/health", p.Health.Health)

	requireSession := pkgmdw.SessionAuth(pkgmdw.SessionAuthConfig{
		Authenticator: p.Auth,
		CookieName:    conf.Auth.CookieName,
	})
	optionalSession := pkgmdw.SessionAuth(pkgmdw.SessionAuthConfig{
		Authenticator: p.Auth,
		CookieName:    conf.Auth.CookieName,
		Optional:      true,
	})
	var limit []echo.MiddlewareFunc
	if conf.RateLimit.Enabled && p.Limiter != nil {
		limit = append(limit, pkgmdw.RateLimit(pkgmdw.RateLimitConfig{Limiter: p.Limiter}))
	}

	api := e.Group("/api")
	api.POST("/auth/login", pkgmdw.WrapHandler(p.Auths.Login))
	api.POST("/auth/logout", pkgmdw.WrapHandler(p.Auths.Logout))
	api.POST("/activities", pkgmdw.WrapHandler(p.Activities.Create), optionalSession)

	for _, r := range []route{
		{http.MethodGet, "/auth/profile", pkgmdw.WrapHandler(p.Auths.GetProfile), false},
		{http.MethodPut, "/auth/profile", pkgmdw.WrapHandler(p.Auths.UpdateProfile), false},

		{http.MethodGet, "/contacts", pkgmdw.WrapHandler(p.Contacts.List), false},
		{http.MethodPost, "/contacts", pkgmdw.WrapHandler(p.Contacts.Create), false},
		{http.MethodPut, "/contacts", pkgmdw.WrapHandler(p.Contacts.Update), false},
		{http.MethodDelete, "/contacts", pkgmdw.WrapHandler(p.Contacts.Delete), false},
		{http.MethodPost, "/contacts/bulk-delete", pkgmdw.WrapHandler(p.Contacts.BulkDelete), false},
		{http.MethodGet, "/contacts/:id", pkgmdw.WrapHandler(p.Contacts.Get), false},
		{http.MethodPost, "/csvParser", p.Contacts.Import, false},

		{http.MethodGet, "/tags", pkgmdw.WrapHandler(p.Tags.List), false},
		{http.MethodPost, "/tags", pkgmdw.WrapHandler(p.Tags.Create), false},
		{http.MethodPut, "/tags", pkgmdw.WrapHandler(p.Tags.Update), false},
		{http.MethodDelete, "/tags", pkgmdw.WrapHandler(p.Tags.Delete), false},
		{http.MethodPost, "/tags/reconcile", pkgmdw.WrapHandler(p.Tags.Reconcile), false},

		{http.MethodGet, "/activities", pkgmdw.WrapHandler(p.Activities.List), false},
		{http.MethodGet, "/dashboard", pkgmdw.WrapHandler(p.Dashboard.Get), false},
		{http.MethodPost, "/ai-insights", pkgmdw.WrapHandler(p.Dashboard.Insights), true},

		{http.MethodPost, "/chat", pkgmdw.WrapHandler(p.Chat.Send), true},
		{http.MethodGet, "/conversations", pkgmdw.WrapHandler(p.Chat.ListConversations), false},
		{http.MethodPost, "/conversations", pkgmdw.WrapHandler(p.Chat.CreateConversation), false},
		{http.MethodDelete, "/conversations", pkgmdw.WrapHandler(p.Chat.DeleteConversation), false},
		{http.MethodGet, "/conversations/:id", pkgmdw.WrapHandler(p.Chat.GetConversation), false},
	} {
		mws := []echo.MiddlewareFunc{requireSession}
		if r.limited {
			mws = append(mws, limit...)
		}
		api.Add(r.method, r.path, r.handler, mws...)
	}

	if conf.Server.EnablePprof {
		pkgmdw.PprofWrap(e, pkgmdw.PprofConfig{Middlewares: []echo.MiddlewareFunc{requireSession}})
	}

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr())
				if err := e.Start(conf.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(context.Background(), "HTTP server stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
