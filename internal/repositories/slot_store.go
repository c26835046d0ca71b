package repositories

import (
	"context"
	"sync"
)

// SlotStore is a single named slot holding one serialized string.
type SlotStore interface {
	// Load returns the stored value; found is false when nothing was saved yet.
	Load(ctx context.Context) (value string, found bool, err error)
	Save(ctx context.Context, value string) error
}

// MemorySlot keeps the slot in process memory.
type MemorySlot struct {
	mu    sync.RWMutex
	value string
	set   bool
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Load returns the last saved value.
func (s *MemorySlot) Load(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set, nil
}

// Save replaces the stored value.
func (s *MemorySlot) Save(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.set = true
	return nil
}
