package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/db"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/filestore"
	"github.com/abansal0486/parking-admin/internal/metrics"
	"github.com/abansal0486/parking-admin/internal/quota"
	"github.com/abansal0486/parking-admin/internal/store"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

type fixture struct {
	svc  *Service
	dir  store.Store
	now  time.Time
	sess directory.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	f := &fixture{
		dir:  store.NewGormStore(gormDB, filestore.NewGormStore(gormDB)),
		now:  time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		sess: directory.Session{Token: "tok", Operator: "front-desk", ExpiresAt: time.Now().Add(time.Hour)},
	}
	f.svc = f.newService()
	return f
}

// newService returns a second service over the same directory with a cold registry cache.
func (f *fixture) newService(opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	return New(f.dir, ticket.NewEngine(), opts...)
}

func intPtr(n int) *int { return &n }

func ticketRequest(buildingID, plate string) ticket.Request {
	return ticket.Request{
		BuildingID:  buildingID,
		PlateNumber: plate,
		UnitNumber:  "1204",
		StartTime:   "2025-01-01T10:00:00Z",
	}
}

func TestService_BannedPlateListLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBuilding(ctx, f.sess, BuildingInput{
		Name:         "Harbour View",
		Period:       "once",
		Nights:       intPtr(5),
		BannedPlates: &Upload{FileName: "banned.csv", Data: []byte("plate\nAB123\nxy 987\n")},
	})
	require.NoError(t, err)
	require.NotNil(t, b.BannedSource)
	assert.Equal(t, "banned.csv", b.BannedSource.FileName)

	banned, err := f.svc.CheckPlate(ctx, f.sess, b.ID, " ab123 ")
	require.NoError(t, err)
	assert.True(t, banned)

	_, err = f.svc.CreateTicket(ctx, f.sess, ticketRequest(b.ID, "AB123"))
	var be *ticket.BannedPlateError
	require.True(t, errors.As(err, &be), "got %v", err)

	// A cold service reads the list back from the directory.
	cold, err := f.newService().CheckPlate(ctx, f.sess, b.ID, "XY 987")
	require.NoError(t, err)
	assert.True(t, cold)

	// Replacing the list swaps the registry and drops the old file.
	old := *b.BannedSource
	b, err = f.svc.UpdateBuilding(ctx, f.sess, b.ID, BuildingInput{
		Name:         "Harbour View",
		BannedPlates: &Upload{Data: []byte("ZZ111\n")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, old.Ref, b.BannedSource.Ref)
	assert.Equal(t, defaultBannedFileName, b.BannedSource.FileName)

	banned, err = f.svc.CheckPlate(ctx, f.sess, b.ID, "AB123")
	require.NoError(t, err)
	assert.False(t, banned)
	banned, err = f.svc.CheckPlate(ctx, f.sess, b.ID, "zz111")
	require.NoError(t, err)
	assert.True(t, banned)
	_, err = f.dir.FetchBannedPlatesFile(ctx, f.sess, b.ID, old)
	assert.ErrorIs(t, err, directory.ErrNotFound)

	// The quota was not part of the edit and survives it.
	period, nights := b.ResolveQuota()
	assert.Equal(t, quota.PeriodOnce, period)
	assert.Equal(t, 5, nights)

	cleared, err := f.svc.ClearBannedPlates(ctx, f.sess, b.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.BannedSource)
	banned, err = f.svc.CheckPlate(ctx, f.sess, b.ID, "ZZ111")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestService_CreateBuildingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: " "})
	assert.ErrorIs(t, err, building.ErrNameRequired)

	_, err = f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "A", Period: "daily", Nights: intPtr(2)})
	var qe *quota.InvalidQuotaError
	assert.True(t, errors.As(err, &qe))

	_, err = f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "A", Period: "weekly", Nights: intPtr(-1)})
	assert.True(t, errors.As(err, &qe))

	_, err = f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "A", BannedPlates: &Upload{Data: []byte("AB\"12\n")}})
	var ie *ticket.InvalidInputError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "file", ie.Field)

	all, err := f.svc.ListBuildings(ctx, f.sess)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected forms persist nothing")
}

func TestService_UpdateBuildingQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "Harbour View", Period: "weekly", Nights: intPtr(3)})
	require.NoError(t, err)

	b, err = f.svc.UpdateBuilding(ctx, f.sess, b.ID, BuildingInput{Name: "Harbour View", Period: "monthly", Nights: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, quota.Fields{MaxNightPerMonth: 10}, b.Quota.Fields())

	b, err = f.svc.UpdateBuilding(ctx, f.sess, b.ID, BuildingInput{Name: "Harbour View", Nights: intPtr(0)})
	require.NoError(t, err)
	assert.False(t, b.Quota.IsSet())

	got, err := f.svc.GetBuilding(ctx, f.sess, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Quota.IsSet())

	_, err = f.svc.UpdateBuilding(ctx, f.sess, "missing", BuildingInput{Name: "x"})
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestService_TicketLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	tm := metrics.NewTicketMetrics(reg)
	f.svc = f.newService(WithMetrics(tm))

	b, err := f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "Harbour View", Period: "once", Nights: intPtr(5)})
	require.NoError(t, err)

	preview, err := f.svc.PreviewTicket(ctx, f.sess, ticketRequest(b.ID, "AB123"))
	require.NoError(t, err)
	assert.Equal(t, ticket.StateValidated, preview.State)
	page, err := f.svc.ListTickets(ctx, f.sess, directory.TicketQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "preview does not persist")

	created, err := f.svc.CreateTicket(ctx, f.sess, ticketRequest(b.ID, "AB123"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, ticket.StateActive, created.State)
	assert.Equal(t, 5, created.Nights)
	assert.Equal(t, time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), created.EndTime.UTC())

	req := ticketRequest(b.ID, "AB123")
	req.Nights = intPtr(7)
	_, err = f.svc.CreateTicket(ctx, f.sess, req)
	var qe *ticket.QuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 5, qe.Limit)

	// Shorten the stay.
	edited, err := f.svc.UpdateTicket(ctx, f.sess, created.ID, TicketUpdate{Nights: intPtr(2)})
	require.NoError(t, err)
	assert.True(t, edited.StartTime.Equal(created.StartTime))
	assert.Equal(t, time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC), edited.EndTime.UTC())

	// Lowering the quota makes the same edit fail and leaves the ticket alone.
	_, err = f.svc.UpdateBuilding(ctx, f.sess, b.ID, BuildingInput{Name: "Harbour View", Period: "once", Nights: intPtr(1)})
	require.NoError(t, err)
	_, err = f.svc.UpdateTicket(ctx, f.sess, created.ID, TicketUpdate{Nights: intPtr(2)})
	require.True(t, errors.As(err, &qe))
	stored, err := f.svc.GetTicket(ctx, f.sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Nights)

	// Contact edits are validated.
	bad := "not-an-email"
	_, err = f.svc.UpdateTicket(ctx, f.sess, created.ID, TicketUpdate{Email: &bad})
	assert.Equal(t, ticket.ReasonInvalidInput, ticket.Reason(err))
	email := "guest@example.com"
	withEmail, err := f.svc.UpdateTicket(ctx, f.sess, created.ID, TicketUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, withEmail.Email)

	// Status follows the clock.
	f.now = time.Date(2025, 1, 3, 10, 0, 1, 0, time.UTC)
	page, err = f.svc.ListTickets(ctx, f.sess, directory.TicketQuery{Search: "ab1"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, ticket.StateExpired, page.Results[0].State)
	assert.Equal(t, "Harbour View", page.Results[0].BuildingName)

	require.NoError(t, f.svc.DeleteTicket(ctx, f.sess, created.ID))
	_, err = f.svc.GetTicket(ctx, f.sess, created.ID)
	assert.ErrorIs(t, err, directory.ErrNotFound)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestService_UnknownBuilding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTicket(ctx, f.sess, ticketRequest("missing", "AB123"))
	assert.Equal(t, ticket.ReasonUnknownBuilding, ticket.Reason(err))

	_, err = f.svc.PreviewTicket(ctx, f.sess, ticketRequest("", "AB123"))
	assert.Equal(t, ticket.ReasonUnknownBuilding, ticket.Reason(err))
}

func TestService_DeletedBuildingKeepsTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBuilding(ctx, f.sess, BuildingInput{Name: "Harbour View", Period: "once", Nights: intPtr(5)})
	require.NoError(t, err)
	created, err := f.svc.CreateTicket(ctx, f.sess, ticketRequest(b.ID, "AB123"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBuilding(ctx, f.sess, b.ID))
	assert.ErrorIs(t, f.svc.DeleteBuilding(ctx, f.sess, b.ID), directory.ErrNotFound)

	orphan, err := f.svc.GetTicket(ctx, f.sess, created.ID)
	require.NoError(t, err)
	assert.Empty(t, orphan.BuildingName)

	_, err = f.svc.UpdateTicket(ctx, f.sess, created.ID, TicketUpdate{Nights: intPtr(1)})
	assert.Equal(t, ticket.ReasonUnknownBuilding, ticket.Reason(err))
}

func TestService_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expired := directory.Session{Token: "tok", ExpiresAt: f.now.Add(-time.Second)}

	_, err := f.svc.PreviewTicket(ctx, expired, ticketRequest("", "AB123"))
	assert.ErrorIs(t, err, directory.ErrSessionExpired)
	_, err = f.svc.CreateBuilding(ctx, directory.Session{}, BuildingInput{Name: "Harbour View"})
	assert.ErrorIs(t, err, directory.ErrSessionExpired)
	_, err = f.svc.Stats(ctx, directory.Session{})
	assert.ErrorIs(t, err, directory.ErrSessionExpired)
}
