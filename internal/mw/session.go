package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/directory"
)

const sessionKey = "session"

// SessionLookup resolves a bearer token to a session.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (directory.Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a live session with 401 and
// stores the session on the context for handlers.
func RequireSession(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		sess, err := sessions.Lookup(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, directory.ErrSessionExpired) {
				log.Error().Err(err).Msg("session lookup failed")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": directory.ErrSessionExpired.Error()})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (directory.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return directory.Session{}, false
	}
	sess, ok := v.(directory.Session)
	return sess, ok
}
