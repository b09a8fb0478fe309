package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/redis"
	"github.com/nguyentranbao-ct/crm-assistant/internal/server"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger"
)

// Invoke builds the application graph with conf and runs funcs against it.
// Only the providers reachable from funcs are constructed.
func Invoke(conf *config.Config, funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	log.Debugw("config loaded",
		"addr", conf.Server.Addr(),
		"database", conf.Database.Database,
		"kafka_enabled", conf.Kafka.Enabled,
		"storage_enabled", conf.Storage.Enabled,
		"rate_limit_enabled", conf.RateLimit.Enabled,
	)
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Supply(conf),
		fx.Provide(
			newMongoDB,
			newRedisClient,
			newGenkitClient,
			newCompleter,
			newActivityPublisher,
			newObjectStore,

			mongodb.NewUserRepository,
			mongodb.NewContactRepository,
			mongodb.NewTagRepository,
			mongodb.NewActivityRepository,
			mongodb.NewConversationRepository,
			mongodb.NewChatRepository,

			redis.NewSessionStore,
			redis.NewRateLimiter,

			usecase.NewActivityUsecase,
			usecase.NewAuthVerifier,
			usecase.NewAuthUsecase,
			usecase.NewTagUsecase,
			usecase.NewContactUsecase,
			usecase.NewImportUsecase,
			usecase.NewContextBuilder,
			usecase.NewChatUsecase,
			usecase.NewDashboardUsecase,
			usecase.NewInsightUsecase,

			server.NewHealthController,
			server.NewAuthController,
			server.NewContactController,
			server.NewTagController,
			server.NewChatController,
			server.NewActivityController,
			server.NewDashboardController,
			server.NewRouter,
		),
		fx.Invoke(funcs...),
	)
}
