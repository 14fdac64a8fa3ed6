package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/filestore"
	"github.com/abansal0486/parking-admin/internal/model"
	"github.com/abansal0486/parking-admin/internal/quota"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Store is the directory backed by the application database.
type Store interface {
	directory.Directory
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	files filestore.Store
	now   func() time.Time
}

// Option configures the store.
type Option func(*gormStore)

// WithClock overrides the time source used for session checks.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) { s.now = now }
}

// NewGormStore creates a new GORM-backed store. Uploaded plate lists are
// written to files.
func NewGormStore(db *gorm.DB, files filestore.Store, opts ...Option) Store {
	s := &gormStore{db: db, files: files, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session checks the caller before any query runs.
func (s *gormStore) session(ctx context.Context, sess directory.Session) (*gorm.DB, error) {
	if err := sess.Check(s.now()); err != nil {
		return nil, err
	}
	return s.db.WithContext(ctx), nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return directory.ErrNotFound
	}
	return err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// --- Buildings ---

func (s *gormStore) FetchBuilding(ctx context.Context, sess directory.Session, id string) (*building.Building, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return nil, err
	}

	var rec model.Building
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	files, err := fetchFiles(db, []model.Building{rec})
	if err != nil {
		return nil, err
	}
	b := toBuilding(rec, files)
	return &b, nil
}

func (s *gormStore) ListBuildings(ctx context.Context, sess directory.Session) ([]building.Building, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return nil, err
	}

	var recs []model.Building
	if err := db.Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return toBuildings(db, recs)
}

func (s *gormStore) ListBuildingsPage(ctx context.Context, sess directory.Session, page, limit int) (directory.Page[building.Building], error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return directory.Page[building.Building]{}, err
	}
	page, limit = normalizePage(page, limit)

	var total int64
	if err := db.Model(&model.Building{}).Count(&total).Error; err != nil {
		return directory.Page[building.Building]{}, fmt.Errorf("failed to count buildings: %w", err)
	}

	var recs []model.Building
	if err := db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&recs).Error; err != nil {
		return directory.Page[building.Building]{}, fmt.Errorf("failed to list buildings: %w", err)
	}
	results, err := toBuildings(db, recs)
	if err != nil {
		return directory.Page[building.Building]{}, err
	}
	return directory.NewPage(results, total, page, limit), nil
}

func (s *gormStore) PersistBuilding(ctx context.Context, sess directory.Session, b *building.Building) error {
	db, err := s.session(ctx, sess)
	if err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	rec := fromBuilding(b)
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "code", "nights", "max_night_per_week", "max_night_per_month", "max_night_per_year",
			"banned_plates_file_ref", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save building %q: %w", b.Name, err)
	}

	b.ID = rec.ID
	b.CreatedAt = rec.CreatedAt
	b.UpdatedAt = rec.UpdatedAt
	return nil
}

// DeleteBuilding removes the building with its uploaded plate lists. Tickets
// issued for it are kept.
func (s *gormStore) DeleteBuilding(ctx context.Context, sess directory.Session, id string) error {
	db, err := s.session(ctx, sess)
	if err != nil {
		return err
	}

	var files []model.BannedPlatesFile
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Building{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete building %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return directory.ErrNotFound
		}
		if err := tx.Where("building_id = ?", id).Find(&files).Error; err != nil {
			return fmt.Errorf("failed to load plate lists for building %s: %w", id, err)
		}
		if err := tx.Where("building_id = ?", id).Delete(&model.BannedPlatesFile{}).Error; err != nil {
			return fmt.Errorf("failed to delete plate lists for building %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.files.Delete(ctx, f.StorageKey); err != nil {
			log.Warn().Err(err).Str("building_id", id).Str("ref", f.Ref).Msg("could not remove banned plates file content")
		}
	}
	return nil
}

func toBuildings(db *gorm.DB, recs []model.Building) ([]building.Building, error) {
	files, err := fetchFiles(db, recs)
	if err != nil {
		return nil, err
	}
	out := make([]building.Building, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toBuilding(rec, files))
	}
	return out, nil
}

func fetchFiles(db *gorm.DB, recs []model.Building) (map[string]model.BannedPlatesFile, error) {
	var refs []string
	for _, rec := range recs {
		if rec.BannedPlatesFileRef != nil {
			refs = append(refs, *rec.BannedPlatesFileRef)
		}
	}
	fileMap := make(map[string]model.BannedPlatesFile, len(refs))
	if len(refs) == 0 {
		return fileMap, nil
	}

	var files []model.BannedPlatesFile
	if err := db.Where("ref IN ?", refs).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to load banned plates files: %w", err)
	}
	for _, f := range files {
		fileMap[f.Ref] = f
	}
	return fileMap, nil
}

func toBuilding(rec model.Building, files map[string]model.BannedPlatesFile) building.Building {
	q, conflicting := quota.FromFields(quota.Fields{
		Nights:           rec.Nights,
		MaxNightPerWeek:  rec.MaxNightPerWeek,
		MaxNightPerMonth: rec.MaxNightPerMonth,
		MaxNightPerYear:  rec.MaxNightPerYear,
	})
	if conflicting {
		log.Warn().Str("building_id", rec.ID).Str("quota", q.String()).
			Msg("building has more than one night limit stored, using the highest priority one")
	}

	b := building.Building{
		ID:        rec.ID,
		Name:      rec.Name,
		Code:      rec.Code,
		Quota:     q,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.BannedPlatesFileRef != nil {
		if f, ok := files[*rec.BannedPlatesFileRef]; ok {
			b.BannedSource = &banned.Source{Ref: f.Ref, FileName: f.FileName, Size: f.Size, Checksum: f.Checksum}
		} else {
			log.Warn().Str("building_id", rec.ID).Str("ref", *rec.BannedPlatesFileRef).Msg("banned plates file metadata missing")
		}
	}
	return b
}

func fromBuilding(b *building.Building) model.Building {
	f := b.Quota.Fields()
	rec := model.Building{
		ID:               b.ID,
		Name:             strings.TrimSpace(b.Name),
		Code:             strings.TrimSpace(b.Code),
		Nights:           f.Nights,
		MaxNightPerWeek:  f.MaxNightPerWeek,
		MaxNightPerMonth: f.MaxNightPerMonth,
		MaxNightPerYear:  f.MaxNightPerYear,
		CreatedAt:        b.CreatedAt,
	}
	if b.BannedSource != nil {
		ref := b.BannedSource.Ref
		rec.BannedPlatesFileRef = &ref
	}
	return rec
}

// --- Tickets ---

func (s *gormStore) FetchTicket(ctx context.Context, sess directory.Session, id string) (*ticket.Ticket, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return nil, err
	}

	var rec model.Ticket
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	names, err := buildingNames(db, []model.Ticket{rec})
	if err != nil {
		return nil, err
	}
	t := toTicket(rec, names[rec.BuildingID])
	return &t, nil
}

func (s *gormStore) ListTicketsPage(ctx context.Context, sess directory.Session, q directory.TicketQuery) (directory.Page[ticket.Ticket], error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return directory.Page[ticket.Ticket]{}, err
	}
	page, limit := normalizePage(q.Page, q.Limit)

	filtered := func() *gorm.DB {
		query := db.Model(&model.Ticket{})
		if term := strings.TrimSpace(q.Search); term != "" {
			like := "%" + escapeLike(strings.ToLower(term)) + "%"
			query = query.Where(
				`lower(plate_number) LIKE ? ESCAPE '\' OR lower(unit_number) LIKE ? ESCAPE '\' OR lower(email) LIKE ? ESCAPE '\'`,
				like, like, like,
			)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return directory.Page[ticket.Ticket]{}, fmt.Errorf("failed to count tickets: %w", err)
	}

	var recs []model.Ticket
	if err := filtered().Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&recs).Error; err != nil {
		return directory.Page[ticket.Ticket]{}, fmt.Errorf("failed to list tickets: %w", err)
	}

	names, err := buildingNames(db, recs)
	if err != nil {
		return directory.Page[ticket.Ticket]{}, err
	}
	results := make([]ticket.Ticket, 0, len(recs))
	for _, rec := range recs {
		results = append(results, toTicket(rec, names[rec.BuildingID]))
	}
	return directory.NewPage(results, total, page, limit), nil
}

func (s *gormStore) PersistTicket(ctx context.Context, sess directory.Session, t *ticket.Ticket) error {
	db, err := s.session(ctx, sess)
	if err != nil {
		return err
	}

	rec := model.Ticket{
		ID:          t.ID,
		PlateNumber: t.PlateNumber,
		Email:       t.Email,
		UnitNumber:  t.UnitNumber,
		BuildingID:  t.BuildingID,
		Nights:      t.Nights,
		StartTime:   t.StartTime.UTC(),
		EndTime:     ticket.Expiry(t.StartTime, t.Nights).UTC(),
		CreatedAt:   t.CreatedAt,
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plate_number", "email", "unit_number", "building_id", "nights", "start_time", "end_time", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save ticket for plate %s: %w", t.PlateNumber, err)
	}

	t.ID = rec.ID
	t.CreatedAt = rec.CreatedAt
	t.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *gormStore) DeleteTicket(ctx context.Context, sess directory.Session, id string) error {
	db, err := s.session(ctx, sess)
	if err != nil {
		return err
	}

	res := db.Where("id = ?", id).Delete(&model.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildingNames(db *gorm.DB, recs []model.Ticket) (map[string]string, error) {
	seen := make(map[string]struct{}, len(recs))
	var ids []string
	for _, rec := range recs {
		if _, ok := seen[rec.BuildingID]; !ok {
			seen[rec.BuildingID] = struct{}{}
			ids = append(ids, rec.BuildingID)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var buildings []model.Building
	if err := db.Select("id", "name").Where("id IN ?", ids).Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to load building names: %w", err)
	}
	for _, b := range buildings {
		names[b.ID] = b.Name
	}
	return names, nil
}

// toTicket loads a persisted ticket. Persisted tickets were issued, so they
// start out Active; callers derive Expired from the clock. The end time is
// always derived from start time and nights; the stored column only serves
// queries.
func toTicket(rec model.Ticket, buildingName string) ticket.Ticket {
	end := ticket.Expiry(rec.StartTime, rec.Nights)
	if !rec.EndTime.Equal(end) {
		log.Warn().Str("ticket_id", rec.ID).Time("stored_end_time", rec.EndTime).Time("end_time", end).
			Msg("stored ticket end time disagrees with start time and nights; using derived value")
	}
	return ticket.Ticket{
		ID:           rec.ID,
		PlateNumber:  rec.PlateNumber,
		Email:        rec.Email,
		UnitNumber:   rec.UnitNumber,
		BuildingID:   rec.BuildingID,
		BuildingName: buildingName,
		StartTime:    rec.StartTime,
		EndTime:      end,
		Nights:       rec.Nights,
		State:        ticket.StateActive,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
