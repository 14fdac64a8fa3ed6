package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/abansal0486/parking-admin/internal/directory"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store whose sessions live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) Issue(_ context.Context, operator string) (directory.Session, error) {
	sess := newSession(operator, m.now(), m.ttl)
	m.cache.Set(sess.Token, sess, m.ttl)
	return sess, nil
}

func (m *MemoryStore) Lookup(_ context.Context, token string) (directory.Session, error) {
	v, found := m.cache.Get(token)
	if !found {
		return directory.Session{}, directory.ErrSessionExpired
	}
	sess := v.(directory.Session)
	if err := sess.Check(m.now()); err != nil {
		return directory.Session{}, err
	}
	return sess, nil
}

func (m *MemoryStore) Revoke(_ context.Context, token string) error {
	m.cache.Delete(token)
	return nil
}
