// Package directory defines the persistence and query service the console
// reads and writes buildings and tickets through.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSessionExpired indicates the caller's session is no longer valid and
	// the operator has to sign in again.
	ErrSessionExpired = errors.New("session expired")
)

// Session is the operator identity passed explicitly to every directory call.
type Session struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Check returns ErrSessionExpired when the session is empty or past its expiry.
func (s Session) Check(now time.Time) error {
	if s.Token == "" || s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt) {
		return ErrSessionExpired
	}
	return nil
}

// Page is one page of a listing.
type Page[T any] struct {
	Results    []T   `json:"results"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// NewPage fills the derived page count.
func NewPage[T any](results []T, total int64, page, limit int) Page[T] {
	if results == nil {
		results = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Results: results, Total: total, TotalPages: totalPages, Page: page, Limit: limit}
}

// TicketQuery selects a page of tickets. Search matches plate, unit number or email.
type TicketQuery struct {
	Page   int
	Limit  int
	Search string
}

// CountByMonth is the number of tickets created in one calendar month.
type CountByMonth struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

// CountByDay is the number of tickets created on one day.
type CountByDay struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

// Stats feeds the console dashboard.
type Stats struct {
	TodayCreated   int64          `json:"todayCreated"`
	TotalTickets   int64          `json:"totalTickets"`
	ActiveTickets  int64          `json:"activeTickets"`
	ExpiringToday  int64          `json:"expiringToday"`
	TotalBuildings int64          `json:"totalBuildings"`
	Last12Months   []CountByMonth `json:"last12Months"`
	Last7Days      []CountByDay   `json:"last7days"`
}

// Directory stores buildings, tickets and uploaded plate lists. Implementations
// check the session on every call and return failures unchanged without retrying.
type Directory interface {
	FetchBuilding(ctx context.Context, sess Session, id string) (*building.Building, error)
	ListBuildings(ctx context.Context, sess Session) ([]building.Building, error)
	ListBuildingsPage(ctx context.Context, sess Session, page, limit int) (Page[building.Building], error)
	PersistBuilding(ctx context.Context, sess Session, b *building.Building) error
	DeleteBuilding(ctx context.Context, sess Session, id string) error

	FetchTicket(ctx context.Context, sess Session, id string) (*ticket.Ticket, error)
	ListTicketsPage(ctx context.Context, sess Session, q TicketQuery) (Page[ticket.Ticket], error)
	PersistTicket(ctx context.Context, sess Session, t *ticket.Ticket) error
	DeleteTicket(ctx context.Context, sess Session, id string) error

	UploadBannedPlatesFile(ctx context.Context, sess Session, buildingID, fileName string, data []byte) (banned.Source, error)
	FetchBannedPlatesFile(ctx context.Context, sess Session, buildingID string, src banned.Source) ([]byte, error)
	RemoveBannedPlatesFile(ctx context.Context, sess Session, buildingID string, src banned.Source) error

	Stats(ctx context.Context, sess Session, now time.Time, loc *time.Location) (Stats, error)
}
