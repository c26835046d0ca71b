package repositories

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/models"
)

// ProductRepository is the remote product collection the catalog synchronizes with.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, input models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

// ErrProductNotFound is returned by repositories that can tell a missing product apart.
var ErrProductNotFound = errors.New("product not found")

// RemoteError is a failed call against the products API: either a transport
// failure (Err set) or a non-success status.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
