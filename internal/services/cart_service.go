package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"shopfront/internal/models"
	"shopfront/internal/repositories"

	"go.uber.org/zap"
)

// PersistenceError reports that the saved cart could not be restored. The cart
// falls back to empty, so callers may log it and carry on.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cart not restored: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CartService owns the shopping cart: one entry per product id with a quantity of at least one.
// When a slot is configured the cart is written to it after every change.
type CartService struct {
	mu      sync.RWMutex
	entries []models.CartEntry
	slot    repositories.SlotStore
	logger  *zap.Logger
}

// NewCartService creates an empty cart. slot may be nil to disable persistence.
func NewCartService(slot repositories.SlotStore, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		entries: []models.CartEntry{},
		slot:    slot,
		logger:  logger.Named("cart"),
	}
}

// Initialize restores the cart from the slot. A missing slot yields an empty cart;
// unreadable or inconsistent data also yields an empty cart and a *PersistenceError.
func (s *CartService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []models.CartEntry{}
	if s.slot == nil {
		return nil
	}

	raw, found, err := s.slot.Load(ctx)
	if err != nil {
		s.logger.Warn("Failed to read saved cart, starting empty", zap.Error(err))
		return &PersistenceError{Err: err}
	}
	if !found {
		return nil
	}

	entries, err := decodeCart(raw)
	if err != nil {
		s.logger.Warn("Saved cart is malformed, starting empty", zap.Error(err))
		return &PersistenceError{Err: err}
	}
	s.entries = entries
	s.logger.Debug("Cart restored", zap.Int("entries", len(entries)))
	return nil
}

func decodeCart(raw string) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Product.ID <= 0 {
			return nil, fmt.Errorf("entry has no product id")
		}
		if e.Quantity < 1 {
			return nil, fmt.Errorf("product %d has quantity %d", e.Product.ID, e.Quantity)
		}
		if seen[e.Product.ID] {
			return nil, fmt.Errorf("product %d appears more than once", e.Product.ID)
		}
		seen[e.Product.ID] = true
	}
	if entries == nil {
		entries = []models.CartEntry{}
	}
	return entries, nil
}

// AddToCart adds one unit of product, creating its entry on first add.
// The entry keeps a snapshot of the product as it was at that moment.
func (s *CartService) AddToCart(ctx context.Context, product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		s.entries[i].Quantity++
	} else {
		s.entries = append(s.entries, models.CartEntry{Product: product.Clone(), Quantity: 1})
	}
	s.persist(ctx)
}

// RemoveOneUnit decrements the product's quantity and drops the entry when it reaches zero.
// Unknown ids are ignored.
func (s *CartService) RemoveOneUnit(ctx context.Context, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	if s.entries[i].Quantity > 1 {
		s.entries[i].Quantity--
	} else {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	s.persist(ctx)
}

// RemoveAllOfProduct drops the product's entry whatever its quantity.
func (s *CartService) RemoveAllOfProduct(ctx context.Context, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.persist(ctx)
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []models.CartEntry{}
	s.persist(ctx)
}

// Entries returns a copy of the cart in insertion order.
func (s *CartService) Entries() []models.CartEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entriesLocked()
}

// TotalUnits is the number of units across all entries.
func (s *CartService) TotalUnits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalUnitsLocked()
}

// TotalPrice is the sum of price times quantity, using the snapshot prices.
func (s *CartService) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalPriceLocked()
}

// CartSummary is a consistent view of the cart and its totals.
type CartSummary struct {
	Items      []models.CartEntry `json:"items"`
	TotalUnits int                `json:"totalUnits"`
	TotalPrice float64            `json:"totalPrice"`
}

// Summary returns the entries and both totals read under one lock.
func (s *CartService) Summary() CartSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return CartSummary{
		Items:      s.entriesLocked(),
		TotalUnits: s.totalUnitsLocked(),
		TotalPrice: s.totalPriceLocked(),
	}
}

func (s *CartService) entriesLocked() []models.CartEntry {
	out := make([]models.CartEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = models.CartEntry{Product: e.Product.Clone(), Quantity: e.Quantity}
	}
	return out
}

func (s *CartService) totalUnitsLocked() int {
	total := 0
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

func (s *CartService) totalPriceLocked() float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Product.Price * float64(e.Quantity)
	}
	return total
}

func (s *CartService) indexOf(productID int) int {
	for i, e := range s.entries {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}

// persist must be called with s.mu held. Write failures are logged only:
// the in-memory cart stays authoritative.
func (s *CartService) persist(ctx context.Context) {
	if s.slot == nil {
		return
	}
	raw, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Error("Failed to encode cart", zap.Error(err))
		return
	}
	if err := s.slot.Save(ctx, string(raw)); err != nil {
		s.logger.Warn("Failed to save cart", zap.Error(err))
	}
}
