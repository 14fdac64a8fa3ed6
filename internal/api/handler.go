package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/mw"
	"github.com/abansal0486/parking-admin/internal/quota"
	"github.com/abansal0486/parking-admin/internal/service"
	"github.com/abansal0486/parking-admin/internal/session"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc      *service.Service
	sessions session.Store
	auth     *session.Authenticator
	health   Pinger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, sessions session.Store, auth *session.Authenticator, health Pinger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		auth:     auth,
		health:   health,
	}
}

// currentSession returns the session RequireSession stored. Handlers behind
// the guard always have one; the zero session fails every directory call.
func currentSession(c *gin.Context) directory.Session {
	sess, _ := mw.SessionFrom(c)
	return sess
}

// writeError maps service errors onto status codes and the console's error body.
func writeError(c *gin.Context, err error) {
	var (
		invalid  *ticket.InvalidInputError
		unknown  *ticket.UnknownBuildingError
		bannedE  *ticket.BannedPlateError
		exceeded *ticket.QuotaExceededError
		badQuota *quota.InvalidQuotaError
	)

	switch {
	case errors.Is(err, directory.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, directory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, building.ErrNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": ticket.ReasonInvalidInput, "field": "name"})
	case errors.As(err, &bannedE):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "reason": ticket.ReasonBannedPlate, "plate": bannedE.Plate})
	case errors.As(err, &exceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"reason":    ticket.ReasonQuotaExceeded,
			"field":     "nights",
			"limit":     exceeded.Limit,
			"period":    exceeded.Period,
			"requested": exceeded.Requested,
		})
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "reason": ticket.ReasonUnknownBuilding, "field": "buildingId"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": ticket.ReasonInvalidInput, "field": invalid.Field})
	case errors.As(err, &badQuota):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": ticket.ReasonInvalidQuota, "field": "nights"})
	default:
		_ = c.Error(err)
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// Health reports database reachability.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
