package models

import "time"

// StorageSlot is a named string blob kept in the database for client-side state.
type StorageSlot struct {
	Name      string `gorm:"primaryKey;type:varchar(100)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
