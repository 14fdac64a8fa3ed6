package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Building is a managed property. At most one of the night columns is
// meaningful; the others are zero.
type Building struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	Name                string    `gorm:"size:128;not null"`
	Code                string    `gorm:"size:64"`
	Nights              int       `gorm:"not null"`
	MaxNightPerWeek     int       `gorm:"not null"`
	MaxNightPerMonth    int       `gorm:"not null"`
	MaxNightPerYear     int       `gorm:"not null"`
	BannedPlatesFileRef *string   `gorm:"size:36"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// BeforeCreate assigns a uuid when the caller did not.
func (b *Building) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BannedPlatesFile is the metadata of one uploaded banned plate list.
type BannedPlatesFile struct {
	Ref        string    `gorm:"primaryKey;size:36"`
	BuildingID string    `gorm:"index;size:36;not null"`
	FileName   string    `gorm:"size:255;not null"`
	Size       int64     `gorm:"not null"`
	Checksum   string    `gorm:"size:64;not null"`
	StorageKey string    `gorm:"size:512;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
