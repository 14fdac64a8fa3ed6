package model

import "time"

// StoredFile holds file content for the database files backend.
type StoredFile struct {
	Key       string    `gorm:"primaryKey;size:512"`
	Data      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
