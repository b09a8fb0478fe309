// Package ctxval is a mutable value bag carried by a request context.
// Values set deep in a handler chain are visible to outer middleware that
// holds the same context, such as the request logger.
package ctxval

import (
	"context"
	"sync"
)

type ctxKey struct{}

type requestIDKey struct{}

type userIDKey struct{}

// Wrap installs a bag on ctx. Wrapping an already wrapped context is a no-op.
func Wrap(ctx context.Context) context.Context {
	if _, ok := bagFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, &bag{storage: ctx})
}

func Set[K comparable, V any](ctx context.Context, k K, v V) {
	b, ok := bagFrom(ctx)
	if !ok {
		return
	}
	b.set(k, v)
}

func Get[K comparable, V any](ctx context.Context, k K) (V, bool) {
	b, ok := bagFrom(ctx)
	if !ok {
		return *new(V), false
	}
	v, ok := b.get(k).(V)
	return v, ok
}

func SetRequestID(ctx context.Context, id string) {
	Set(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	v, _ := Get[requestIDKey, string](ctx, requestIDKey{})
	return v
}

func SetUserID(ctx context.Context, id string) {
	Set(ctx, userIDKey{}, id)
}

func UserID(ctx context.Context) string {
	v, _ := Get[userIDKey, string](ctx, userIDKey{})
	return v
}

// bag chains context values under a mutex; it holds a handful of keys per
// request so a linked context is enough.
type bag struct {
	mu      sync.Mutex
	storage context.Context
}

func (b *bag) get(key any) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storage.Value(key)
}

func (b *bag) set(key any, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.storage = context.WithValue(b.storage, key, value)
}

func bagFrom(ctx context.Context) (*bag, bool) {
	b, ok := ctx.Value(ctxKey{}).(*bag)
	return b, ok
}
