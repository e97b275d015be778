package session

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Save(ctx context.Context, id string, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Clear(ctx context.Context, id string) error
	// Subscribe delivers changes until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Change, error)
}

// InMemoryStore is used for tests and single-instance deployments. Sessions expire
// ttl after their last save, unless ttl is zero.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]stored
	subs     map[chan Change]<-chan struct{}
	ttl      time.Duration
	now      func() time.Time
}

type stored struct {
	session   Session
	expiresAt time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]stored),
		subs:     make(map[chan Change]<-chan struct{}),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *InMemoryStore) Save(_ context.Context, id string, s Session) error {
	entry := stored{session: s}
	m.mu.Lock()
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[id] = entry
	m.mu.Unlock()
	m.publish(Change{SessionID: id})
	return nil
}

func (m *InMemoryStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	expired := ok && !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
	if expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if expired {
		m.publish(Change{SessionID: id, Cleared: true})
	}
	if !ok || expired {
		return Session{}, ErrNoSession
	}
	return entry.session, nil
}

func (m *InMemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.publish(Change{SessionID: id, Cleared: true})
	return nil
}

// Expire removes every session past its TTL and announces each one as cleared.
func (m *InMemoryStore) Expire() int {
	now := m.now()
	var gone []string
	m.mu.Lock()
	for id, entry := range m.sessions {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			gone = append(gone, id)
		}
	}
	m.mu.Unlock()
	for _, id := range gone {
		m.publish(Change{SessionID: id, Cleared: true})
	}
	return len(gone)
}

// RunExpiry calls Expire every interval until ctx is done.
func (m *InMemoryStore) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Expire()
		}
	}
}

func (m *InMemoryStore) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 16)
	m.mu.Lock()
	m.subs[ch] = ctx.Done()
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}

// publish may drop a plain change for a slow subscriber, since the next save carries
// the same news. A cleared change waits until the subscriber takes it or goes away.
func (m *InMemoryStore) publish(c Change) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch, done := range m.subs {
		if c.Cleared {
			select {
			case ch <- c:
			case <-done:
			}
			continue
		}
		select {
		case ch <- c:
		default:
		}
	}
}
