package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	LLM       LLMConfig       `envPrefix:"LLM_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Import    ImportConfig    `envPrefix:"IMPORT_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Log       logger.Config   `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	AllowOrigins []string      `env:"ALLOW_ORIGINS" envDefault:"http://localhost:3000"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	EnablePprof  bool          `env:"ENABLE_PPROF" envDefault:"false"`
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DatabaseConfig struct {
	Hosts          []string      `env:"HOSTS" envDefault:"localhost:27017"`
	Direct         bool          `env:"DIRECT" envDefault:"false"`
	Username       string        `env:"USERNAME"`
	Password       string        `env:"PASSWORD"`
	AuthDB         string        `env:"AUTH_DB" envDefault:"admin"`
	Database       string        `env:"DATABASE" envDefault:"crm"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	EnsureIndexes  bool          `env:"ENSURE_INDEXES" envDefault:"true"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type AuthConfig struct {
	// TokenSecret verifies the HS256 id tokens minted by the identity
	// provider.
	TokenSecret  string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenIssuer  string        `env:"TOKEN_ISSUER"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"120h"`
	CookieName   string        `env:"COOKIE_NAME" envDefault:"session"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type LLMConfig struct {
	GoogleAIAPIKey string        `env:"GOOGLE_AI_API_KEY"`
	Model          string        `env:"MODEL" envDefault:"googleai/gemini-2.0-flash"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type StorageConfig struct {
	Enabled    bool          `env:"ENABLED" envDefault:"false"`
	Endpoint   string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey  string        `env:"ACCESS_KEY"`
	SecretKey  string        `env:"SECRET_KEY"`
	Bucket     string        `env:"BUCKET" envDefault:"avatars"`
	Region     string        `env:"REGION" envDefault:"us-east-1"`
	UseSSL     bool          `env:"USE_SSL" envDefault:"false"`
	PresignTTL time.Duration `env:"PRESIGN_TTL" envDefault:"1h"`
	MaxBytes   int64         `env:"MAX_BYTES" envDefault:"2097152"`
}

type KafkaConfig struct {
	Enabled       bool     `env:"ENABLED" envDefault:"false"`
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092"`
	ActivityTopic string   `env:"ACTIVITY_TOPIC" envDefault:"crm.activities"`
	ClientID      string   `env:"CLIENT_ID" envDefault:"crm-assistant"`
}

type ImportConfig struct {
	MaxFileBytes int64 `env:"MAX_FILE_BYTES" envDefault:"5242880"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Limit   int           `env:"LIMIT" envDefault:"20"`
	Window  time.Duration `env:"WINDOW" envDefault:"1m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
