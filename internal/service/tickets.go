package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

// TicketUpdate holds the editable ticket fields. Nil fields are unchanged.
// Plate, building and start time are fixed once a ticket is issued.
type TicketUpdate struct {
	Nights     *int    `json:"nights"`
	Email      *string `json:"email"`
	UnitNumber *string `json:"unitNumber"`
}

// PreviewTicket runs the engine without persisting anything.
func (s *Service) PreviewTicket(ctx context.Context, sess directory.Session, req ticket.Request) (ticket.Ticket, error) {
	if err := sess.Check(s.now()); err != nil {
		return ticket.Ticket{}, err
	}
	b, err := s.resolveBuilding(ctx, sess, req.BuildingID)
	if err != nil {
		return ticket.Ticket{}, err
	}
	t, err := s.engine.ValidateAndPrepare(b, req)
	s.metrics.ObserveDecision(ticket.Reason(err))
	return t, err
}

// CreateTicket validates and persists a ticket, which then becomes Active.
func (s *Service) CreateTicket(ctx context.Context, sess directory.Session, req ticket.Request) (ticket.Ticket, error) {
	t, err := s.PreviewTicket(ctx, sess, req)
	if err != nil {
		return t, err
	}
	if err := s.dir.PersistTicket(ctx, sess, &t); err != nil {
		return t, err
	}
	t.State = ticket.StateActive
	t.State = s.engine.StatusAt(t, s.now())

	log.Info().Str("ticket_id", t.ID).Str("building_id", t.BuildingID).Str("plate", t.PlateNumber).
		Int("nights", t.Nights).Str("operator", sess.Operator).Msg("ticket created")
	return t, nil
}

// UpdateTicket edits an issued ticket. A new night count is checked against
// the building's current quota and moves the end time; the start time stays.
func (s *Service) UpdateTicket(ctx context.Context, sess directory.Session, id string, in TicketUpdate) (ticket.Ticket, error) {
	current, err := s.dir.FetchTicket(ctx, sess, id)
	if err != nil {
		return ticket.Ticket{}, err
	}

	updated := *current
	if in.UnitNumber != nil {
		updated.UnitNumber = strings.TrimSpace(*in.UnitNumber)
	}
	if in.Email != nil {
		updated.Email = strings.TrimSpace(*in.Email)
	}
	if err := s.engine.ValidateDetails(updated.UnitNumber, updated.Email); err != nil {
		s.metrics.ObserveEdit(ticket.Reason(err))
		return *current, err
	}

	if in.Nights != nil {
		b, err := s.resolveBuilding(ctx, sess, current.BuildingID)
		if err != nil {
			return *current, err
		}
		if updated, err = s.engine.RecomputeExpiry(updated, b, *in.Nights); err != nil {
			s.metrics.ObserveEdit(ticket.Reason(err))
			return *current, err
		}
	}

	if err := s.dir.PersistTicket(ctx, sess, &updated); err != nil {
		return *current, err
	}
	s.metrics.ObserveEdit("")
	updated.State = s.engine.StatusAt(updated, s.now())

	log.Info().Str("ticket_id", updated.ID).Int("nights", updated.Nights).Str("operator", sess.Operator).Msg("ticket updated")
	return updated, nil
}

// GetTicket returns a ticket with its status at the current time.
func (s *Service) GetTicket(ctx context.Context, sess directory.Session, id string) (ticket.Ticket, error) {
	t, err := s.dir.FetchTicket(ctx, sess, id)
	if err != nil {
		return ticket.Ticket{}, err
	}
	t.State = s.engine.StatusAt(*t, s.now())
	return *t, nil
}

// DeleteTicket removes a ticket.
func (s *Service) DeleteTicket(ctx context.Context, sess directory.Session, id string) error {
	if err := s.dir.DeleteTicket(ctx, sess, id); err != nil {
		return err
	}
	log.Info().Str("ticket_id", id).Str("operator", sess.Operator).Msg("ticket deleted")
	return nil
}

// ListTickets returns one page of tickets with their current status.
func (s *Service) ListTickets(ctx context.Context, sess directory.Session, q directory.TicketQuery) (directory.Page[ticket.Ticket], error) {
	page, err := s.dir.ListTicketsPage(ctx, sess, q)
	if err != nil {
		return page, err
	}
	now := s.now()
	for i := range page.Results {
		page.Results[i].State = s.engine.StatusAt(page.Results[i], now)
	}
	return page, nil
}
