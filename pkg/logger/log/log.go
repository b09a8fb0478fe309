// Package log writes through the root logger and tags every entry with the
// request and user ids found in the context.
package log

import (
	"context"

	"github.com/nguyentranbao-ct/crm-assistant/pkg/ctxval"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger"
	"go.uber.org/zap"
)

func Debugw(ctx context.Context, msg string, kv ...any) {
	from(ctx).Debugw(msg, kv...)
}

func Infow(ctx context.Context, msg string, kv ...any) {
	from(ctx).Infow(msg, kv...)
}

func Warnw(ctx context.Context, msg string, kv ...any) {
	from(ctx).Warnw(msg, kv...)
}

func Errorw(ctx context.Context, msg string, kv ...any) {
	from(ctx).Errorw(msg, kv...)
}

func Infof(format string, args ...any) {
	sugar().Infof(format, args...)
}

func Fatal(args ...any) {
	sugar().Fatal(args...)
}

func sugar() *zap.SugaredLogger {
	return logger.L().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func from(ctx context.Context) *zap.SugaredLogger {
	l := logger.L().WithOptions(zap.AddCallerSkip(2)).Sugar()
	if ctx == nil {
		return l
	}
	if id := ctxval.RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	if id := ctxval.UserID(ctx); id != "" {
		l = l.With("user_id", id)
	}
	return l
}
