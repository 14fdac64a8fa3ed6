package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/directory"
	"github.com/abansal0486/parking-admin/internal/filestore"
	"github.com/abansal0486/parking-admin/internal/model"
)

// UploadBannedPlatesFile stores data as a new plate list for the building.
// The building keeps its current reference until it is persisted with the
// returned source.
func (s *gormStore) UploadBannedPlatesFile(ctx context.Context, sess directory.Session, buildingID, fileName string, data []byte) (banned.Source, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return banned.Source{}, err
	}

	var count int64
	if err := db.Model(&model.Building{}).Where("id = ?", buildingID).Count(&count).Error; err != nil {
		return banned.Source{}, fmt.Errorf("failed to look up building %s: %w", buildingID, err)
	}
	if count == 0 {
		return banned.Source{}, directory.ErrNotFound
	}

	sum := sha256.Sum256(data)
	rec := model.BannedPlatesFile{
		Ref:        uuid.NewString(),
		BuildingID: buildingID,
		FileName:   fileName,
		Size:       int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
	}
	rec.StorageKey = fmt.Sprintf("%s/%s.csv", buildingID, rec.Ref)

	if err := s.files.Put(ctx, rec.StorageKey, data); err != nil {
		return banned.Source{}, err
	}
	if err := db.Create(&rec).Error; err != nil {
		if delErr := s.files.Delete(ctx, rec.StorageKey); delErr != nil {
			log.Warn().Err(delErr).Str("key", rec.StorageKey).Msg("could not clean up uploaded file")
		}
		return banned.Source{}, fmt.Errorf("failed to record banned plates file: %w", err)
	}

	log.Info().Str("building_id", buildingID).Str("ref", rec.Ref).Int64("size", rec.Size).Msg("banned plates file uploaded")
	return banned.Source{Ref: rec.Ref, FileName: rec.FileName, Size: rec.Size, Checksum: rec.Checksum}, nil
}

func (s *gormStore) FetchBannedPlatesFile(ctx context.Context, sess directory.Session, buildingID string, src banned.Source) ([]byte, error) {
	db, err := s.session(ctx, sess)
	if err != nil {
		return nil, err
	}

	var rec model.BannedPlatesFile
	if err := db.Where("ref = ? AND building_id = ?", src.Ref, buildingID).Take(&rec).Error; err != nil {
		return nil, notFound(err)
	}

	data, err := s.files.Get(ctx, rec.StorageKey)
	if errors.Is(err, filestore.ErrNotFound) {
		return nil, fmt.Errorf("banned plates file %s: %w", rec.Ref, directory.ErrNotFound)
	}
	return data, err
}

// RemoveBannedPlatesFile deletes the plate list and clears the building's
// reference to it. Removing a list that is already gone is not an error.
func (s *gormStore) RemoveBannedPlatesFile(ctx context.Context, sess directory.Session, buildingID string, src banned.Source) error {
	db, err := s.session(ctx, sess)
	if err != nil {
		return err
	}

	var rec model.BannedPlatesFile
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ref = ? AND building_id = ?", src.Ref, buildingID).Take(&rec).Error; err != nil {
			return err
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return fmt.Errorf("failed to delete banned plates file %s: %w", rec.Ref, err)
		}
		return tx.Model(&model.Building{}).
			Where("id = ? AND banned_plates_file_ref = ?", buildingID, rec.Ref).
			Update("banned_plates_file_ref", nil).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.files.Delete(ctx, rec.StorageKey)
}
