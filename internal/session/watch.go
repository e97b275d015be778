package session

import (
	"context"
	"sync"
	"time"
)

// Watch is the single place that listens for session changes. fn runs for every
// change until ctx is done.
func Watch(ctx context.Context, store Store, fn func(Change)) error {
	changes, err := store.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for c := range changes {
			fn(c)
		}
	}()
	return nil
}

// Pool keeps one value per session, created lazily. Values idle for longer than the
// idle TTL are dropped by Sweep, and a full pool drops its least recently used value
// to make room.
type Pool[T any] struct {
	mu      sync.Mutex
	items   map[string]*pooled[T]
	idleTTL time.Duration
	maxSize int
	now     func() time.Time
}

type pooled[T any] struct {
	value    T
	lastUsed time.Time
}

type PoolOption func(*poolOptions)

type poolOptions struct {
	idleTTL time.Duration
	maxSize int
}

// IdleTTL drops values not used for d. Zero keeps them until evicted.
func IdleTTL(d time.Duration) PoolOption {
	return func(o *poolOptions) { o.idleTTL = d }
}

// MaxSize caps the number of values. Zero means no cap.
func MaxSize(n int) PoolOption {
	return func(o *poolOptions) { o.maxSize = n }
}

func NewPool[T any](opts ...PoolOption) *Pool[T] {
	var o poolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool[T]{items: make(map[string]*pooled[T]), idleTTL: o.idleTTL, maxSize: o.maxSize, now: time.Now}
}

func (p *Pool[T]) Get(id string, create func() T) T {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if it, ok := p.items[id]; ok {
		it.lastUsed = now
		return it.value
	}
	if p.maxSize > 0 && len(p.items) >= p.maxSize {
		p.sweepLocked(now)
		if len(p.items) >= p.maxSize {
			p.dropOldestLocked()
		}
	}
	v := create()
	p.items[id] = &pooled[T]{value: v, lastUsed: now}
	return v
}

// Lookup returns the value for id without creating one.
func (p *Pool[T]) Lookup(id string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	it.lastUsed = p.now()
	return it.value, true
}

func (p *Pool[T]) Evict(id string) {
	p.mu.Lock()
	delete(p.items, id)
	p.mu.Unlock()
}

func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Sweep drops the values idle for longer than the idle TTL and returns how many went.
func (p *Pool[T]) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sweepLocked(p.now())
}

func (p *Pool[T]) sweepLocked(now time.Time) int {
	if p.idleTTL <= 0 {
		return 0
	}
	n := 0
	for id, it := range p.items {
		if now.Sub(it.lastUsed) > p.idleTTL {
			delete(p.items, id)
			n++
		}
	}
	return n
}

func (p *Pool[T]) dropOldestLocked() {
	var (
		oldest string
		at     time.Time
	)
	for id, it := range p.items {
		if oldest == "" || it.lastUsed.Before(at) {
			oldest, at = id, it.lastUsed
		}
	}
	delete(p.items, oldest)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (p *Pool[T]) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}
