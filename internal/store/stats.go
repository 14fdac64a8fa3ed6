package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/model"
)

// Stats counts tickets for the dashboard. Day and month boundaries are taken
// in loc.
func (s *gormStore) Stats(ctx context.Context, sess directory.Session, now time.Time, loc *time.Location) (directory.Stats, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return directory.Stats{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStart := dayStart.AddDate(0, 0, -6)
	monthStart := time.Date(local.Year(), local.Month()-11, 1, 0, 0, 0, 0, loc)

	tickets := func() *gorm.DB { return db.Model(&model.Ticket{}) }

	var st directory.Stats
	counts := []struct {
		name  string
		query *gorm.DB
		dst   *int64
	}{
		{"total tickets", tickets(), &st.TotalTickets},
		{"created today", tickets().Where("created_at >= ? AND created_at < ?", dayStart.UTC(), dayEnd.UTC()), &st.TodayCreated},
		{"active tickets", tickets().Where("end_time >= ?", now.UTC()), &st.ActiveTickets},
		{"expiring today", tickets().Where("end_time >= ? AND end_time < ?", dayStart.UTC(), dayEnd.UTC()), &st.ExpiringToday},
		{"buildings", db.Model(&model.Building{}), &st.TotalBuildings},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return directory.Stats{}, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	var created []time.Time
	if err := tickets().Where("created_at >= ?", monthStart.UTC()).Pluck("created_at", &created).Error; err != nil {
		return directory.Stats{}, fmt.Errorf("failed to load ticket history: %w", err)
	}

	st.Last12Months = make([]directory.CountByMonth, 12)
	for i := range st.Last12Months {
		m := monthStart.AddDate(0, i, 0)
		st.Last12Months[i] = directory.CountByMonth{Year: m.Year(), Month: int(m.Month())}
	}
	st.Last7Days = make([]directory.CountByDay, 7)
	for i := range st.Last7Days {
		st.Last7Days[i] = directory.CountByDay{Date: weekStart.AddDate(0, 0, i).Format(time.DateOnly)}
	}

	for _, c := range created {
		cl := c.In(loc)
		months := (cl.Year()-monthStart.Year())*12 + int(cl.Month()) - int(monthStart.Month())
		if months >= 0 && months < len(st.Last12Months) {
			st.Last12Months[months].Total++
		}
		if !cl.Before(weekStart) && cl.Before(dayEnd) {
			day := time.Date(cl.Year(), cl.Month(), cl.Day(), 0, 0, 0, 0, loc)
			idx := int(day.Sub(weekStart).Hours()+12) / 24
			if idx >= 0 && idx < len(st.Last7Days) {
				st.Last7Days[idx].Total++
			}
		}
	}
	return st, nil
}
