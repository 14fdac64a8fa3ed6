package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/abansal0486/parking-admin/internal/mw"
)

// RouterConfig holds the middleware settings.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	r.GET("/healthz", h.Health)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := rate.Limit(cfg.RateLimitPerSec)
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.POST("/auth/login", mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByClientIP), h.Login)

	authed := api.Group("")
	authed.Use(
		mw.RequireSession(h.sessions),
		mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByOperator),
		mw.InvalidateCache(cacheStore),
	)
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)

		// GET /api/buildings
		authed.GET("/buildings", caching, h.ListBuildings)
		authed.GET("/buildings/paginated", caching, h.ListBuildingsPage)
		authed.GET("/buildings/:id", h.GetBuilding)
		authed.POST("/buildings", h.CreateBuilding)
		authed.PUT("/buildings/:id", h.UpdateBuilding)
		authed.DELETE("/buildings/:id", h.DeleteBuilding)

		// Banned plate list of one building.
		authed.DELETE("/buildings/:id/banned-plates", h.ClearBannedPlates)
		authed.GET("/buildings/:id/banned-plates/check", caching, h.CheckPlate)

		// Ticket status and stats depend on the clock, so they are never cached.
		// GET /api/ticket?page=&limit=&search=
		authed.GET("/ticket", h.ListTickets)
		authed.GET("/ticket/stats", h.Stats)
		authed.GET("/ticket/:id", h.GetTicket)
		authed.POST("/ticket/validate", h.ValidateTicket)
		authed.POST("/ticket/manual", h.CreateTicket)
		authed.PUT("/ticket/:id", h.UpdateTicket)
		authed.DELETE("/ticket/:id", h.DeleteTicket)
	}

	return r
}
