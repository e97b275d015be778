package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func storeContract(t *testing.T, store Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)

	_, err = store.Load(ctx, "sid-1")
	assert.True(t, errors.Is(err, ErrNoSession))

	want := Session{UserID: "7", Token: "backend-token", Role: "CUSTOMER"}
	require.NoError(t, store.Save(ctx, "sid-1", want))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx, "sid-1"))
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNoSession)

	var seen []Change
	timeout := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case c := <-changes:
			seen = append(seen, c)
		case <-timeout:
			t.Fatalf("expected two change signals, got %v", seen)
		}
	}
	assert.Equal(t, Change{SessionID: "sid-1"}, seen[0])
	assert.Equal(t, Change{SessionID: "sid-1", Cleared: true}, seen[1])
}

func TestInMemoryStore(t *testing.T) {
	storeContract(t, NewInMemoryStore(0))
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	storeContract(t, store)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sid-2", Session{UserID: "1", Token: "t"}))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "sid-2")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestContextRequire(t *testing.T) {
	assert.ErrorIs(t, Context{}.Require("cart.Load"), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, Context{ID: "sid", Session: Session{UserID: "1"}}.Require("x"), apperr.ErrUnauthenticated)
	assert.NoError(t, Context{ID: "sid", Session: Session{UserID: "1", Token: "t"}}.Require("x"))
}

func TestWatchAndPool(t *testing.T) {
	store := NewInMemoryStore(0)
	pool := NewPool[*int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, Watch(ctx, store, func(c Change) {
		if c.Cleared {
			pool.Evict(c.SessionID)
		}
	}))

	n := 1
	assert.Same(t, &n, pool.Get("sid", func() *int { return &n }))
	assert.Same(t, &n, pool.Get("sid", func() *int { t.Fatal("should reuse"); return nil }))

	require.NoError(t, store.Clear(ctx, "sid"))
	assert.Eventually(t, func() bool { return pool.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryStoreExpires(t *testing.T) {
	store := NewInMemoryStore(time.Hour)
	clock := time.Now()
	store.now = func() time.Time { return clock }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "sid-3", Session{UserID: "1", Token: "t"}))
	require.NoError(t, store.Save(ctx, "sid-4", Session{UserID: "2", Token: "t"}))
	<-changes
	<-changes

	clock = clock.Add(2 * time.Hour)
	_, err = store.Load(ctx, "sid-3")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, Change{SessionID: "sid-3", Cleared: true}, <-changes)

	assert.Equal(t, 1, store.Expire())
	assert.Equal(t, Change{SessionID: "sid-4", Cleared: true}, <-changes)
	assert.Equal(t, 0, store.Expire())
}

func TestClearedChangesAreNotDropped(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)

	// fill the buffer with saves nobody reads yet
	for i := 0; i < 40; i++ {
		require.NoError(t, store.Save(ctx, "sid-busy", Session{UserID: "1", Token: "t"}))
	}
	cleared := make(chan struct{})
	go func() {
		_ = store.Clear(ctx, "sid-busy")
		close(cleared)
	}()

	var gotCleared bool
	timeout := time.After(2 * time.Second)
	for !gotCleared {
		select {
		case c := <-changes:
			gotCleared = c.Cleared
		case <-timeout:
			t.Fatal("cleared change was lost")
		}
	}
	<-cleared
}

func TestClearDoesNotWaitForAGoneSubscriber(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := store.Subscribe(ctx)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Save(context.Background(), "sid", Session{UserID: "1", Token: "t"}))
	}

	done := make(chan struct{})
	go func() {
		_ = store.Clear(context.Background(), "sid")
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clear blocked on a cancelled subscriber")
	}
}
