package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
// Lookups of unknown ids return an error wrapping models.ErrNotFound.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// GetByIDs returns the products that still exist; missing ids are skipped.
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}
