package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/mw"
	"github.com/abansal0486/parking-admin/internal/session"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges operator credentials for a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.auth.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			log.Warn().Str("username", req.Username).Str("client_ip", c.ClientIP()).Msg("failed login")
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}

	sess, err := h.sessions.Issue(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	log.Info().Str("operator", sess.Operator).Msg("operator signed in")
	c.JSON(http.StatusOK, sess)
}

// Logout revokes the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), mw.BearerToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's session without the token.
func (h *Handler) Me(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"operator": sess.Operator, "expiresAt": sess.ExpiresAt})
}
