package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// PlaceOrder runs the whole read-verify-decrement sequence in one transaction.
// Product rows are locked FOR UPDATE in id order (a no-op on SQLite, where the
// single connection already serialises writers), and every decrement is
// conditional on enough stock so concurrent checkouts cannot overdraw.
func (r *GORMOrderRepository) PlaceOrder(ctx context.Context, userID uint, lines []uint) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}
	ids := lo.Uniq(lines)

	var order *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id").
			Find(&products).Error; err != nil {
			return fmt.Errorf("failed to load cart products: %w", err)
		}

		byID := lo.KeyBy(products, func(p models.Product) uint { return p.ID })
		if err := validateLines(lines, byID); err != nil {
			return err
		}

		counts := lo.CountValues(lines)
		for _, id := range ids {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", id, counts[id]).
				Update("stock", gorm.Expr("stock - ?", counts[id]))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock of product %d: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				return &models.OutOfStockError{ProductID: id, ProductName: byID[id].Name}
			}
		}

		order = buildOrder(userID, lines, byID)
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", userID, err)
	}
	return orders, nil
}
