package services

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/samber/lo"
)

// ProductService serves the catalog and the admin product CRUD.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct replaces name, price and stock of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := checkProduct(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct deletes a product by its ID. Carts still referencing it fail
// at checkout with models.ErrCartItemMissing.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// CartView resolves cart lines for display. Lines whose product has been
// deleted are left out; checkout is where they become an error.
func (s *ProductService) CartView(ctx context.Context, lines []uint) (*models.CartView, error) {
	view := &models.CartView{Lines: []models.CartLine{}}
	if len(lines) == 0 {
		return view, nil
	}

	products, err := s.repo.GetByIDs(ctx, lo.Uniq(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart: %w", err)
	}
	byID := lo.KeyBy(products, func(p models.Product) uint { return p.ID })

	for _, id := range lines {
		p, ok := byID[id]
		if !ok {
			continue
		}
		view.Lines = append(view.Lines, models.CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price})
		view.Total += p.Price
	}
	return view, nil
}

// checkProduct rejects values no stored product may hold.
func checkProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("product name must not be empty: %w", models.ErrInvalidInput)
	case p.Price < 0:
		return fmt.Errorf("product price must not be negative: %w", models.ErrInvalidInput)
	case p.Stock < 0:
		return fmt.Errorf("product stock must not be negative: %w", models.ErrInvalidInput)
	}
	return nil
}
