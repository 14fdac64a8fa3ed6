// Package ticket decides whether a vehicle may be registered at a building
// and derives the permitted stay from the building's quota.
package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/parse"
	"github.com/abansal0486/parking-admin/internal/quota"
)

// Engine validates ticket requests. It holds only configuration and is safe
// for concurrent use.
type Engine struct {
	defaultNights int
	loc           *time.Location
	validate      *validator.Validate
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultNights sets the night count used when neither the operator nor
// the building's quota supplies one.
func WithDefaultNights(n int) Option {
	return func(e *Engine) { e.defaultNights = n }
}

// WithLocation sets the timezone for start times sent without an offset.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine builds an Engine. Without options local start times are read as UTC
// and there is no default night count.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{loc: time.UTC, validate: validator.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the timezone local start times are read in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// ValidateAndPrepare turns a request into a Validated ticket. A banned plate
// is rejected before any quota or field check. On failure the returned
// ticket is in StateRejected.
func (e *Engine) ValidateAndPrepare(b *building.Building, req Request) (Ticket, error) {
	t := Ticket{
		BuildingID:  req.BuildingID,
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		Email:       strings.TrimSpace(req.Email),
		UnitNumber:  strings.TrimSpace(req.UnitNumber),
		State:       StateDraft,
	}
	reject := func(err error) (Ticket, error) {
		t.State = StateRejected
		return t, err
	}

	if b == nil {
		return reject(&UnknownBuildingError{BuildingID: req.BuildingID})
	}
	t.BuildingID = b.ID
	t.BuildingName = b.Name

	if b.IsBanned(t.PlateNumber) {
		return reject(&BannedPlateError{Plate: banned.Normalize(t.PlateNumber), BuildingID: b.ID})
	}

	period, limit := b.ResolveQuota()
	nights := e.defaultNights
	if limit > 0 {
		nights = limit
	}
	if req.Nights != nil {
		nights = *req.Nights
		if err := checkLimit(nights, period, limit); err != nil {
			return reject(err)
		}
	}

	if t.PlateNumber == "" {
		return reject(&InvalidInputError{Field: "plateNumber", Reason: "is required"})
	}
	if t.UnitNumber == "" {
		return reject(&InvalidInputError{Field: "unitNumber", Reason: "is required"})
	}
	start, err := parse.StartTime(req.StartTime, e.loc)
	if err != nil {
		return reject(&InvalidInputError{Field: "startTime", Reason: err.Error()})
	}
	if err := e.checkEmail(t.Email); err != nil {
		return reject(err)
	}
	if err := checkNights(nights); err != nil {
		return reject(err)
	}

	t.StartTime = start
	t.Nights = nights
	t.EndTime = Expiry(start, nights)
	t.State = StateValidated
	return t, nil
}

// ValidateDetails checks an edited unit number and email.
func (e *Engine) ValidateDetails(unitNumber, email string) error {
	if strings.TrimSpace(unitNumber) == "" {
		return &InvalidInputError{Field: "unitNumber", Reason: "is required"}
	}
	return e.checkEmail(strings.TrimSpace(email))
}

func (e *Engine) checkEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := e.validate.Var(email, "email"); err != nil {
		return &InvalidInputError{Field: "email", Reason: "must be a valid email"}
	}
	return nil
}

// RecomputeExpiry applies a new night count to an existing ticket. The limit is
// the building's current quota, not the one in force when the ticket was issued.
// StartTime never changes. On failure t is returned unchanged.
func (e *Engine) RecomputeExpiry(t Ticket, b *building.Building, newNights int) (Ticket, error) {
	if b == nil {
		return t, &UnknownBuildingError{BuildingID: t.BuildingID}
	}
	period, limit := b.ResolveQuota()
	if err := checkLimit(newNights, period, limit); err != nil {
		return t, err
	}
	if err := checkNights(newNights); err != nil {
		return t, err
	}
	if t.StartTime.IsZero() {
		return t, &InvalidInputError{Field: "startTime", Reason: "is required"}
	}

	out := t
	out.Nights = newNights
	out.EndTime = Expiry(t.StartTime, newNights)
	return out, nil
}

// IsExpired reports whether now is past the ticket's end time.
func (e *Engine) IsExpired(t Ticket, now time.Time) bool {
	return now.After(t.EndTime)
}

// StatusAt derives Active or Expired for an issued ticket. Tickets that were
// never issued keep their state.
func (e *Engine) StatusAt(t Ticket, now time.Time) State {
	switch t.State {
	case StateActive, StateExpired:
		if e.IsExpired(t, now) {
			return StateExpired
		}
		return StateActive
	}
	return t.State
}

// checkNights bounds a night count so the derived end time cannot overflow.
func checkNights(nights int) error {
	if nights < 1 {
		return &InvalidInputError{Field: "nights", Reason: "must be at least 1"}
	}
	if nights > quota.MaxNights {
		return &InvalidInputError{Field: "nights", Reason: fmt.Sprintf("must be at most %d", quota.MaxNights)}
	}
	return nil
}

func checkLimit(nights int, period quota.Period, limit int) error {
	if limit > 0 && nights > limit {
		return &QuotaExceededError{Requested: nights, Limit: limit, Period: period}
	}
	return nil
}
