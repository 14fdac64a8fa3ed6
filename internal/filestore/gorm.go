package filestore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abansal0486/parking-admin/internal/model"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore keeps file content in the stored_files table.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Put(ctx context.Context, key string, data []byte) error {
	rec := model.StoredFile{Key: key, Data: data}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to store file %s: %w", key, err)
	}
	return nil
}

func (s *gormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec model.StoredFile
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", key, err)
	}
	return rec.Data, nil
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.StoredFile{}).Error; err != nil {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}
