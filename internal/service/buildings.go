package service

import (
	"bytes"
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/building"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/quota"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

const defaultBannedFileName = "banned-plates.csv"

// Upload is an uploaded banned plate list.
type Upload struct {
	FileName string
	Data     []byte
}

// BuildingInput is the operator form for creating or editing a building.
// Nights nil leaves the quota untouched, 0 removes it.
type BuildingInput struct {
	Name              string
	Code              string
	Period            string
	Nights            *int
	BannedPlates      *Upload
	ClearBannedPlates bool
}

func applyQuota(b *building.Building, period string, nights *int) error {
	p, err := quota.ParsePeriod(period)
	if err != nil {
		return err
	}
	if nights == nil {
		return nil
	}
	if *nights == 0 {
		b.Quota = quota.Quota{}
		return nil
	}
	return b.SetQuota(p, *nights)
}

func parseUpload(up *Upload) ([]string, error) {
	if strings.TrimSpace(up.FileName) == "" {
		up.FileName = defaultBannedFileName
	}
	lines, err := banned.ReadCSV(bytes.NewReader(up.Data))
	if err != nil {
		return nil, &ticket.InvalidInputError{Field: "file", Reason: err.Error()}
	}
	return lines, nil
}

// CreateBuilding validates and persists a new building, then stores its
// banned plate list when one was uploaded.
func (s *Service) CreateBuilding(ctx context.Context, sess directory.Session, in BuildingInput) (*building.Building, error) {
	b, err := building.New(in.Name, in.Code)
	if err != nil {
		return nil, err
	}
	if err := applyQuota(b, in.Period, in.Nights); err != nil {
		return nil, err
	}
	var lines []string
	if in.BannedPlates != nil {
		if lines, err = parseUpload(in.BannedPlates); err != nil {
			return nil, err
		}
	}

	if err := s.dir.PersistBuilding(ctx, sess, b); err != nil {
		return nil, err
	}
	b.AttachRegistry(s.registryFor(b.ID))
	if in.BannedPlates != nil {
		if err := s.replaceBannedPlates(ctx, sess, b, in.BannedPlates, lines); err != nil {
			return nil, err
		}
	}

	log.Info().Str("building_id", b.ID).Str("name", b.Name).Str("quota", b.Quota.String()).Msg("building created")
	return b, nil
}

// UpdateBuilding applies the form to an existing building. A new upload
// replaces the banned list; ClearBannedPlates removes it.
func (s *Service) UpdateBuilding(ctx context.Context, sess directory.Session, id string, in BuildingInput) (*building.Building, error) {
	b, err := s.dir.FetchBuilding(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	b.Name = strings.TrimSpace(in.Name)
	b.Code = strings.TrimSpace(in.Code)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := applyQuota(b, in.Period, in.Nights); err != nil {
		return nil, err
	}

	switch {
	case in.BannedPlates != nil:
		lines, err := parseUpload(in.BannedPlates)
		if err != nil {
			return nil, err
		}
		if err := s.replaceBannedPlates(ctx, sess, b, in.BannedPlates, lines); err != nil {
			return nil, err
		}
	case in.ClearBannedPlates:
		if err := s.clearBannedPlates(ctx, sess, b); err != nil {
			return nil, err
		}
	default:
		if err := s.dir.PersistBuilding(ctx, sess, b); err != nil {
			return nil, err
		}
		if err := s.hydrate(ctx, sess, b); err != nil {
			return nil, err
		}
	}

	log.Info().Str("building_id", b.ID).Str("quota", b.Quota.String()).Msg("building updated")
	return b, nil
}

// replaceBannedPlates uploads the new list, points the building at it and
// swaps the registry. The previous file is removed last.
func (s *Service) replaceBannedPlates(ctx context.Context, sess directory.Session, b *building.Building, up *Upload, lines []string) error {
	src, err := s.dir.UploadBannedPlatesFile(ctx, sess, b.ID, up.FileName, up.Data)
	if err != nil {
		return err
	}

	prev := b.BannedSource
	b.BannedSource = &src
	if err := s.dir.PersistBuilding(ctx, sess, b); err != nil {
		b.BannedSource = prev
		if rmErr := s.dir.RemoveBannedPlatesFile(ctx, sess, b.ID, src); rmErr != nil {
			log.Warn().Err(rmErr).Str("building_id", b.ID).Str("ref", src.Ref).Msg("could not remove unused banned plates file")
		}
		return err
	}

	reg := s.registryFor(b.ID)
	n := reg.Load(src, lines)
	b.AttachRegistry(reg)
	s.metrics.ObserveRegistryLoad(b.ID, n)
	log.Info().Str("building_id", b.ID).Str("ref", src.Ref).Int("plates", n).Msg("banned plate list replaced")

	if prev != nil && prev.Ref != src.Ref {
		if err := s.dir.RemoveBannedPlatesFile(ctx, sess, b.ID, *prev); err != nil {
			log.Warn().Err(err).Str("building_id", b.ID).Str("ref", prev.Ref).Msg("could not remove previous banned plates file")
		}
	}
	return nil
}

func (s *Service) clearBannedPlates(ctx context.Context, sess directory.Session, b *building.Building) error {
	prev := b.BannedSource
	b.BannedSource = nil
	if err := s.dir.PersistBuilding(ctx, sess, b); err != nil {
		b.BannedSource = prev
		return err
	}
	reg := s.registryFor(b.ID)
	reg.Clear()
	b.AttachRegistry(reg)
	s.metrics.ObserveRegistryLoad(b.ID, 0)

	if prev != nil {
		return s.dir.RemoveBannedPlatesFile(ctx, sess, b.ID, *prev)
	}
	return nil
}

// ClearBannedPlates empties a building's banned list and deletes the file.
func (s *Service) ClearBannedPlates(ctx context.Context, sess directory.Session, id string) (*building.Building, error) {
	b, err := s.dir.FetchBuilding(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.clearBannedPlates(ctx, sess, b); err != nil {
		return nil, err
	}
	log.Info().Str("building_id", b.ID).Msg("banned plate list cleared")
	return b, nil
}

// DeleteBuilding removes a building. Its tickets are kept and show no
// building name afterwards.
func (s *Service) DeleteBuilding(ctx context.Context, sess directory.Session, id string) error {
	if err := s.dir.DeleteBuilding(ctx, sess, id); err != nil {
		return err
	}
	s.forgetRegistry(id)
	log.Info().Str("building_id", id).Msg("building deleted")
	return nil
}

// GetBuilding returns a building with its banned registry loaded.
func (s *Service) GetBuilding(ctx context.Context, sess directory.Session, id string) (*building.Building, error) {
	b, err := s.dir.FetchBuilding(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, sess, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBuildings returns every building ordered by name.
func (s *Service) ListBuildings(ctx context.Context, sess directory.Session) ([]building.Building, error) {
	return s.dir.ListBuildings(ctx, sess)
}

// ListBuildingsPage returns one page of buildings, newest first.
func (s *Service) ListBuildingsPage(ctx context.Context, sess directory.Session, page, limit int) (directory.Page[building.Building], error) {
	return s.dir.ListBuildingsPage(ctx, sess, page, limit)
}

// CheckPlate reports whether plate is banned at the building.
func (s *Service) CheckPlate(ctx context.Context, sess directory.Session, buildingID, plate string) (bool, error) {
	b, err := s.GetBuilding(ctx, sess, buildingID)
	if err != nil {
		return false, err
	}
	return b.IsBanned(plate), nil
}
