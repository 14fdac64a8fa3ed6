package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abansal0486/parking-admin/config"
	"github.com/abansal0486/parking-admin/internal/directory"
)

type fakeRedis struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestStores(t *testing.T) {
	ttl := time.Hour
	memory := NewMemoryStore(ttl)
	fake := newFakeRedis()
	redisStore := NewRedisStore(fake, ttl)

	stores := map[string]struct {
		store  Store
		setNow func(func() time.Time)
	}{
		"memory": {store: memory, setNow: func(f func() time.Time) { memory.now = f }},
		"redis":  {store: redisStore, setNow: func(f func() time.Time) { redisStore.now = f }},
	}

	for name, tc := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
			tc.setNow(func() time.Time { return start })

			sess, err := tc.store.Issue(ctx, "front-desk")
			require.NoError(t, err)
			assert.NotEmpty(t, sess.Token)
			assert.Equal(t, start.Add(ttl), sess.ExpiresAt)

			got, err := tc.store.Lookup(ctx, sess.Token)
			require.NoError(t, err)
			assert.Equal(t, "front-desk", got.Operator)
			assert.NoError(t, got.Check(start))

			_, err = tc.store.Lookup(ctx, "unknown")
			assert.ErrorIs(t, err, directory.ErrSessionExpired)
			_, err = tc.store.Lookup(ctx, "")
			assert.ErrorIs(t, err, directory.ErrSessionExpired)

			tc.setNow(func() time.Time { return start.Add(ttl) })
			_, err = tc.store.Lookup(ctx, sess.Token)
			assert.ErrorIs(t, err, directory.ErrSessionExpired, "a session is invalid at its expiry instant")

			tc.setNow(func() time.Time { return start })
			require.NoError(t, tc.store.Revoke(ctx, sess.Token))
			_, err = tc.store.Lookup(ctx, sess.Token)
			assert.ErrorIs(t, err, directory.ErrSessionExpired)
		})
	}

	for key, got := range fake.ttls {
		assert.Equal(t, ttl, got, "ttl for %s", key)
	}
}

func TestAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewAuthenticator([]config.OperatorConfig{{Username: "front-desk", PasswordHash: string(hash)}})

	assert.Equal(t, 1, auth.Len())
	assert.NoError(t, auth.Verify("front-desk", "s3cret"))
	assert.ErrorIs(t, auth.Verify("front-desk", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, auth.Verify("nobody", "s3cret"), ErrInvalidCredentials)
	assert.ErrorIs(t, auth.Verify("", ""), ErrInvalidCredentials)
}
