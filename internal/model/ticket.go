package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is an issued parking permit. EndTime is derived from StartTime and
// Nights and stored so dashboards can filter on it.
type Ticket struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PlateNumber string    `gorm:"size:32;index;not null"`
	Email       string    `gorm:"size:255"`
	UnitNumber  string    `gorm:"size:32;not null"`
	BuildingID  string    `gorm:"size:36;index;not null"`
	Nights      int       `gorm:"not null"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"index;not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// BeforeCreate assigns a uuid when the caller did not.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
