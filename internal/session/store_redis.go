package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const changesChannel = "storefront:session:changes"

// RedisStore keeps one hash per session and announces changes on a pub/sub channel,
// so every storefront instance sees logins and logouts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(id string) string {
	return "storefront:session:" + id
}

func (r *RedisStore) Save(ctx context.Context, id string, s Session) error {
	key := r.key(id)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":    s.UserID,
		"token":      s.Token,
		"role":       s.Role,
		"updated_at": time.Now().Unix(),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return r.publish(ctx, Change{SessionID: id})
}

func (r *RedisStore) Load(ctx context.Context, id string) (Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if len(fields) == 0 {
		return Session{}, ErrNoSession
	}
	return Session{UserID: fields["user_id"], Token: fields["token"], Role: fields["role"]}, nil
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.publish(ctx, Change{SessionID: id, Cleared: true})
}

func (r *RedisStore) publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, changesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish session change: %w", err)
	}
	return nil
}

func (r *RedisStore) Subscribe(ctx context.Context) (<-chan Change, error) {
	pubsub := r.client.Subscribe(ctx, changesChannel)
	// wait for the subscription to be confirmed so no change is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session changes: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
