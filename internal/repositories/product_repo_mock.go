package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopfront/internal/models"
)

// MockProductRepository is an in-memory stand-in for the products API.
// It assigns increasing ids and lists newest first, like the real API.
type MockProductRepository struct {
	products map[int]models.Product
	order    []int
	nextID   int
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[int]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products, newest first.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		productList = append(productList, r.products[r.order[i]].Clone())
	}
	return productList, nil
}

// Create adds a new product and returns it with its assigned id.
func (r *MockProductRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	product := models.Product{
		ID:          r.nextID,
		Title:       input.Title,
		Price:       input.Price,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Category:    &models.Category{ID: input.CategoryID},
		Images:      append([]string(nil), input.Images...),
		CreationAt:  &now,
		UpdatedAt:   &now,
	}
	r.nextID++
	r.products[product.ID] = product
	r.order = append(r.order, product.ID)

	out := product.Clone()
	return &out, nil
}

// Update applies the non-nil fields of patch to an existing product.
func (r *MockProductRepository) Update(ctx context.Context, patch models.ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[patch.ID]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", patch.ID, ErrProductNotFound)
	}
	if patch.Title != nil {
		product.Title = *patch.Title
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
		product.Category = &models.Category{ID: *patch.CategoryID}
	}
	if patch.Images != nil {
		product.Images = append([]string(nil), patch.Images...)
	}
	now := time.Now().UTC()
	product.UpdatedAt = &now
	r.products[patch.ID] = product

	out := product.Clone()
	return &out, nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
