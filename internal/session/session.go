// Package session issues and resolves operator sessions for the console.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abansal0486/parking-admin/internal/directory"
)

// Store issues and resolves session tokens. Lookup returns
// directory.ErrSessionExpired for unknown, revoked and expired tokens alike.
type Store interface {
	Issue(ctx context.Context, operator string) (directory.Session, error)
	Lookup(ctx context.Context, token string) (directory.Session, error)
	Revoke(ctx context.Context, token string) error
}

func newSession(operator string, now time.Time, ttl time.Duration) directory.Session {
	return directory.Session{
		Token:     uuid.NewString(),
		Operator:  operator,
		ExpiresAt: now.Add(ttl),
	}
}
