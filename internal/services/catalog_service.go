package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopfront/internal/models"
	"shopfront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownProduct is returned when editing a product the catalog does not hold.
var ErrUnknownProduct = errors.New("product is not in the catalog")

// EventPublisher delivers catalog events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is published after a catalog change has been confirmed by the server.
type ProductEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ProductID  int             `json:"productId"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Catalog event types, also used as routing keys.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// CatalogService holds the products as last confirmed by the products API.
// Local state only changes after the remote call succeeds, and always to the
// server's reply rather than what was submitted.
type CatalogService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	logger    *zap.Logger

	mu       sync.RWMutex
	products []models.Product
	loading  bool

	fetches singleflight.Group
}

// NewCatalogService creates an empty catalog. publisher may be nil.
func NewCatalogService(repo repositories.ProductRepository, publisher EventPublisher, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("catalog"),
		products:  []models.Product{},
	}
}

// Products returns a copy of the catalog in its current order.
func (s *CatalogService) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Product looks up a product by id.
func (s *CatalogService) Product(id int) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOfProduct(s.products, id); i >= 0 {
		return s.products[i].Clone(), true
	}
	return models.Product{}, false
}

// IsLoading reports whether a FetchAll is in flight.
func (s *CatalogService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *CatalogService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// sharedFetchTimeout bounds a fetch that no longer follows any single caller's context.
const sharedFetchTimeout = 30 * time.Second

// FetchAll replaces the catalog with the server's collection. On failure the
// catalog is left as it was. Concurrent calls share a single request; a caller
// that gives up only abandons its own wait, not the shared request.
func (s *CatalogService) FetchAll(ctx context.Context) error {
	results := s.fetches.DoChan("all", func() (interface{}, error) {
		s.setLoading(true)
		defer s.setLoading(false)

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		products, err := s.repo.GetAll(fetchCtx)
		if err != nil {
			s.logger.Error("Failed to fetch products", zap.Error(err))
			return nil, fmt.Errorf("failed to fetch products: %w", err)
		}
		s.apply(opFetch, remoteResult{products: products})
		s.logger.Info("Catalog loaded", zap.Int("products", len(products)))
		return nil, nil
	})

	select {
	case res := <-results:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("failed to fetch products: %w", ctx.Err())
	}
}

// Create validates input, creates it remotely and puts the server's record first in the catalog.
func (s *CatalogService) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	if err := models.ValidateInput(input); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		s.logger.Error("Failed to create product", zap.String("title", input.Title), zap.Error(err))
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.apply(opCreate, remoteResult{product: created})
	s.logger.Info("Product created", zap.Int("id", created.ID))

	s.publish(EventProductCreated, created.ID, created)
	out := created.Clone()
	return &out, nil
}

// Edit updates a product already in the catalog and swaps in the server's record.
func (s *CatalogService) Edit(ctx context.Context, patch models.ProductPatch) (*models.Product, error) {
	if err := models.ValidatePatch(patch); err != nil {
		return nil, err
	}
	if _, ok := s.Product(patch.ID); !ok {
		return nil, fmt.Errorf("edit product %d: %w", patch.ID, ErrUnknownProduct)
	}

	updated, err := s.repo.Update(ctx, patch)
	if err != nil {
		s.logger.Error("Failed to update product", zap.Int("id", patch.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update product %d: %w", patch.ID, err)
	}
	if updated == nil || updated.ID != patch.ID {
		err := &repositories.RemoteError{
			Op:      fmt.Sprintf("update product %d", patch.ID),
			Message: "reply does not carry the edited product id",
		}
		s.logger.Error("Malformed update reply", zap.Int("id", patch.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update product %d: %w", patch.ID, err)
	}
	s.apply(opEdit, remoteResult{product: updated, id: patch.ID})
	s.logger.Info("Product updated", zap.Int("id", updated.ID))

	s.publish(EventProductUpdated, updated.ID, updated)
	out := updated.Clone()
	return &out, nil
}

// Delete removes a product remotely, then locally.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	s.apply(opDelete, remoteResult{id: id})
	s.logger.Info("Product deleted", zap.Int("id", id))

	s.publish(EventProductDeleted, id, nil)
	return nil
}

func (s *CatalogService) apply(op catalogOp, res remoteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = applyRemoteResult(s.products, op, res)
}

// publish is best effort: a lost event never undoes a confirmed change.
func (s *CatalogService) publish(eventType string, productID int, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := ProductEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ProductID:  productID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal catalog event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(eventType, body); err != nil {
		s.logger.Warn("Failed to publish catalog event",
			zap.String("type", eventType),
			zap.Int("productId", productID),
			zap.Error(err))
	}
}

type catalogOp int

const (
	opFetch catalogOp = iota
	opCreate
	opEdit
	opDelete
)

type remoteResult struct {
	products []models.Product
	product  *models.Product
	id       int
}

// applyRemoteResult computes the catalog after a confirmed remote operation.
// It never modifies the input slice.
func applyRemoteResult(current []models.Product, op catalogOp, res remoteResult) []models.Product {
	switch op {
	case opFetch:
		out := make([]models.Product, len(res.products))
		copy(out, res.products)
		return out

	case opCreate:
		out := make([]models.Product, 0, len(current)+1)
		out = append(out, res.product.Clone())
		for _, p := range current {
			// A fetch that landed first may already hold the new record.
			if p.ID != res.product.ID {
				out = append(out, p)
			}
		}
		return out

	case opEdit:
		out := make([]models.Product, len(current))
		copy(out, current)
		if i := indexOfProduct(out, res.id); i >= 0 {
			out[i] = res.product.Clone()
		}
		return out

	case opDelete:
		out := make([]models.Product, 0, len(current))
		for _, p := range current {
			if p.ID != res.id {
				out = append(out, p)
			}
		}
		return out
	}
	return current
}

func indexOfProduct(products []models.Product, id int) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
