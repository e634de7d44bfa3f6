package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// PlaceOrder turns cart lines into stock decrements and an order record.
	// Either every line is decremented and the order stored, or nothing changes.
	// It fails with models.ErrCartItemMissing or a *models.OutOfStockError.
	PlaceOrder(ctx context.Context, userID uint, lines []uint) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
}

// validateLines checks resolved cart lines in two passes: every line must
// resolve, then every line must have stock left. Stock is checked per line,
// aggregate demand is enforced by the guarded decrement.
func validateLines(lines []uint, byID map[uint]models.Product) error {
	for _, id := range lines {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("product %d: %w", id, models.ErrCartItemMissing)
		}
	}
	for _, id := range lines {
		p := byID[id]
		if p.Stock <= 0 {
			return &models.OutOfStockError{ProductID: p.ID, ProductName: p.Name}
		}
	}
	return nil
}

// buildOrder aggregates lines per product, in first-seen order.
func buildOrder(userID uint, lines []uint, byID map[uint]models.Product) *models.Order {
	counts := lo.CountValues(lines)
	items := lo.Map(lo.Uniq(lines), func(id uint, _ int) models.OrderItem {
		p := byID[id]
		return models.OrderItem{
			ProductID: id,
			Name:      p.Name,
			Quantity:  counts[id],
			Price:     p.Price,
		}
	})
	total := lo.SumBy(lines, func(id uint) float64 {
		return byID[id].Price
	})

	return &models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Status:      models.OrderStatusPlaced,
		CreatedAt:   time.Now(),
	}
}
