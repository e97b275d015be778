package session

import (
	"context"
	"time"

	"github.com/wichananm65/flower-shop-storefront/internal/notify"
)

// Bound is a per-session value plus the recorder that collects the notifications
// of the current request.
type Bound[T any] struct {
	Value    T
	Recorder *notify.Recorder
}

// Context returns parent carrying the request recorder, so the value's notifications
// end up in this response only.
func (b Bound[T]) Context(parent context.Context) context.Context {
	return notify.WithRecorder(parent, b.Recorder)
}

// Registry builds per-session values on first use and drops them on eviction or
// after sitting idle.
type Registry[T any] struct {
	pool   *Pool[T]
	create func(Context, notify.Notifier) T
	push   func(sessionID string) notify.Notifier
}

// NewRegistry returns a registry. push may be nil when there is no realtime channel.
func NewRegistry[T any](create func(Context, notify.Notifier) T, push func(sessionID string) notify.Notifier, opts ...PoolOption) *Registry[T] {
	return &Registry[T]{pool: NewPool[T](opts...), create: create, push: push}
}

// Get returns the session's value with a fresh recorder for this request.
func (r *Registry[T]) Get(sess Context) Bound[T] {
	v := r.pool.Get(sess.ID, func() T {
		var n notify.Notifier
		if r.push != nil {
			n = r.push(sess.ID)
		}
		return r.create(sess, n)
	})
	return Bound[T]{Value: v, Recorder: notify.NewRecorder()}
}

func (r *Registry[T]) Evict(sessionID string) {
	r.pool.Evict(sessionID)
}

func (r *Registry[T]) Len() int {
	return r.pool.Len()
}

func (r *Registry[T]) Sweep() int {
	return r.pool.Sweep()
}

func (r *Registry[T]) RunSweeper(ctx context.Context, interval time.Duration) {
	r.pool.RunSweeper(ctx, interval)
}
