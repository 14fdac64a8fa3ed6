// Package service runs console operations: it resolves buildings through the
// directory, keeps their banned plate registries loaded and asks the ticket
// engine for decisions.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/metrics"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

const defaultRegistryTTL = 30 * time.Minute

// Service is safe for concurrent use.
type Service struct {
	dir        directory.Directory
	engine     *ticket.Engine
	registries *cache.Cache
	metrics    *metrics.TicketMetrics
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records engine decisions on m.
func WithMetrics(m *metrics.TicketMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used to derive ticket status.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRegistryTTL sets how long a loaded banned list stays cached before it
// is read from the directory again.
func WithRegistryTTL(ttl time.Duration) Option {
	return func(s *Service) { s.registries = cache.New(ttl, 2*ttl) }
}

// New creates a Service over dir.
func New(dir directory.Directory, engine *ticket.Engine, opts ...Option) *Service {
	s := &Service{
		dir:        dir,
		engine:     engine,
		registries: cache.New(defaultRegistryTTL, 2*defaultRegistryTTL),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the ticket engine decisions are made with.
func (s *Service) Engine() *ticket.Engine {
	return s.engine
}

// hydrate attaches b's banned registry, reading the uploaded list from the
// directory when the cached registry was loaded from a different file.
func (s *Service) hydrate(ctx context.Context, sess directory.Session, b *building.Building) error {
	reg := s.registryFor(b.ID)
	b.AttachRegistry(reg)
	if b.RegistryCurrent() {
		return nil
	}
	if b.BannedSource == nil {
		reg.Clear()
		return nil
	}

	data, err := s.dir.FetchBannedPlatesFile(ctx, sess, b.ID, *b.BannedSource)
	if err != nil {
		return fmt.Errorf("load banned plates for building %s: %w", b.ID, err)
	}
	lines, err := banned.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return err
	}
	n := reg.Load(*b.BannedSource, lines)
	s.metrics.ObserveRegistryLoad(b.ID, n)
	log.Debug().Str("building_id", b.ID).Int("plates", n).Msg("banned plate registry loaded")
	return nil
}

// registryFor returns the shared registry for a building, creating it once.
func (s *Service) registryFor(buildingID string) *banned.Registry {
	if v, ok := s.registries.Get(buildingID); ok {
		return v.(*banned.Registry)
	}
	reg := banned.NewRegistry()
	if err := s.registries.Add(buildingID, reg, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := s.registries.Get(buildingID); ok {
			return v.(*banned.Registry)
		}
	}
	return reg
}

func (s *Service) forgetRegistry(buildingID string) {
	s.registries.Delete(buildingID)
	s.metrics.ForgetBuilding(buildingID)
}

// resolveBuilding fetches and hydrates a building. A missing building is
// reported as (nil, nil) so the engine can reject it as unknown.
func (s *Service) resolveBuilding(ctx context.Context, sess directory.Session, id string) (*building.Building, error) {
	if id == "" {
		return nil, nil
	}
	b, err := s.dir.FetchBuilding(ctx, sess, id)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, sess, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Stats returns dashboard counts with day boundaries in the engine's timezone.
func (s *Service) Stats(ctx context.Context, sess directory.Session) (directory.Stats, error) {
	return s.dir.Stats(ctx, sess, s.now(), s.engine.Location())
}
