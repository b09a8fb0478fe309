// Package logger owns the process-wide zap logger. Components take a named
// child with MustNamed; request-scoped code logs through package log.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

var (
	mu   sync.RWMutex
	root *zap.Logger
)

// Init replaces the root logger. Loggers handed out before Init keep
// writing to the previous core.
func Init(cfg Config) error {
	l, err := build(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	root = l
	mu.Unlock()
	return nil
}

// Replace installs l as the root logger and returns a func restoring the
// previous one. Tests use it with zaptest/observer cores.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := root
	root = l
	mu.Unlock()
	return func() {
		mu.Lock()
		root = prev
		mu.Unlock()
	}
}

func L() *zap.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		l, err := build(Config{Level: "info", Format: "json"})
		if err != nil {
			panic(err)
		}
		root = l
	}
	return root
}

func S() *zap.SugaredLogger {
	return L().Sugar()
}

func MustNamed(name string) *zap.SugaredLogger {
	if name == "" {
		panic("logger: empty name")
	}
	return L().Named(name).Sugar()
}

func build(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
