package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/service"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

// ListTickets returns one page of tickets matching ?search=.
func (h *Handler) ListTickets(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	page, err := h.svc.ListTickets(c.Request.Context(), currentSession(c), directory.TicketQuery{
		Page:   q.Page,
		Limit:  q.Limit,
		Search: q.Search,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(page, newTicketResponse))
}

// GetTicket returns one ticket.
func (h *Handler) GetTicket(c *gin.Context) {
	t, err := h.svc.GetTicket(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTicketResponse(t))
}

// ValidateTicket previews a ticket without saving it.
func (h *Handler) ValidateTicket(c *gin.Context) {
	var req ticket.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	t, err := h.svc.PreviewTicket(c.Request.Context(), currentSession(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTicketResponse(t))
}

// CreateTicket issues a ticket entered by an operator.
func (h *Handler) CreateTicket(c *gin.Context) {
	var req ticket.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	t, err := h.svc.CreateTicket(c.Request.Context(), currentSession(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTicketResponse(t))
}

// UpdateTicket edits nights, email or unit number.
func (h *Handler) UpdateTicket(c *gin.Context) {
	var upd service.TicketUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c)
		return
	}
	t, err := h.svc.UpdateTicket(c.Request.Context(), currentSession(c), c.Param("id"), upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTicketResponse(t))
}

// DeleteTicket removes a ticket.
func (h *Handler) DeleteTicket(c *gin.Context) {
	if err := h.svc.DeleteTicket(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats returns the dashboard counts.
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
