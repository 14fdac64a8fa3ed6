package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abansal0486/parking-admin/internal/directory"
)

const keyPrefix = "parking:session:"

type cmdable interface {
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore keeps sessions in redis so they survive restarts and are shared
// between instances.
type RedisStore struct {
	client cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a store whose sessions live for ttl.
func NewRedisStore(client cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisStore) Issue(ctx context.Context, operator string) (directory.Session, error) {
	sess := newSession(operator, r.now(), r.ttl)
	payload, err := json.Marshal(sess)
	if err != nil {
		return directory.Session{}, err
	}
	if err := r.client.Set(ctx, keyPrefix+sess.Token, payload, r.ttl).Err(); err != nil {
		return directory.Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (r *RedisStore) Lookup(ctx context.Context, token string) (directory.Session, error) {
	if token == "" {
		return directory.Session{}, directory.ErrSessionExpired
	}
	payload, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return directory.Session{}, directory.ErrSessionExpired
	}
	if err != nil {
		return directory.Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess directory.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return directory.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if err := sess.Check(r.now()); err != nil {
		return directory.Session{}, err
	}
	return sess, nil
}

func (r *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
