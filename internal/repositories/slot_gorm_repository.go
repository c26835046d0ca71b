package repositories

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMSlot is a GORM implementation of SlotStore backed by the storage_slots table.
type GORMSlot struct {
	db   *gorm.DB
	name string
}

// NewGORMSlot creates a slot called name. The table must already be migrated.
func NewGORMSlot(db *gorm.DB, name string) *GORMSlot {
	return &GORMSlot{
		db:   db,
		name: name,
	}
}

// Load retrieves the slot value from the database.
func (s *GORMSlot) Load(ctx context.Context) (string, bool, error) {
	var slot models.StorageSlot
	if err := s.db.WithContext(ctx).First(&slot, "name = ?", s.name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load slot %s: %w", s.name, err)
	}
	return slot.Value, true, nil
}

// Save upserts the slot value.
func (s *GORMSlot) Save(ctx context.Context, value string) error {
	slot := models.StorageSlot{Name: s.name, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", s.name, err)
	}
	return nil
}
