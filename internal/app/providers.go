package app

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/events"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/storage"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	opts := options.Client().
		SetAppName("crm-assistant").
		SetDirect(cfg.Database.Direct).
		SetHosts(cfg.Database.Hosts)

	if cfg.Database.Username != "" {
		opts.SetAuth(options.Credential{
			Username:      cfg.Database.Username,
			Password:      cfg.Database.Password,
			AuthSource:    cfg.Database.AuthDB,
			AuthMechanism: "SCRAM-SHA-256",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	db := &mongodb.DB{
		Client:   mongoClient,
		Database: mongoClient.Database(cfg.Database.Database),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("ping mongo: %w", err)
			}
			if !cfg.Database.EnsureIndexes {
				return nil
			}
			return db.EnsureIndexes(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})

	return db, nil
}

func newRedisClient(lc fx.Lifecycle, cfg *config.Config) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newGenkitClient(cfg *config.Config) (*genkit.Genkit, error) {
	ctx := context.Background()
	googleAI := &googlegenai.GoogleAI{
		APIKey: cfg.LLM.GoogleAIAPIKey,
	}
	return genkit.Init(ctx, genkit.WithPlugins(googleAI)), nil
}

func newCompleter(g *genkit.Genkit, cfg *config.Config) (llm.Completer, error) {
	return llm.NewGenkitCompleter(g, cfg)
}

// newActivityPublisher publishes to Kafka when enabled and otherwise
// drops events.
func newActivityPublisher(lc fx.Lifecycle, cfg *config.Config) (events.ActivityPublisher, error) {
	if !cfg.Kafka.Enabled {
		return events.NewNoopPublisher(), nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, events.NewProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("init kafka producer: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return events.NewKafkaPublisher(producer, cfg.Kafka.ActivityTopic)
}

func newObjectStore(lc fx.Lifecycle, cfg *config.Config) (storage.ObjectStore, error) {
	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.EnsureBucket(ctx); err != nil {
				// avatars degrade, the rest of the service does not depend on them
				log.Warnw(ctx, "could not ensure avatar bucket", "bucket", cfg.Storage.Bucket, "error", err)
			}
			return nil
		},
	})
	return store, nil
}
