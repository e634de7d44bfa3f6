package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog"
)

// OrderPlacedRoutingKey is the routing key of order events.
const OrderPlacedRoutingKey = "order.placed"

// OrderPublisher publishes order events; *rabbitmq.Client implements it.
type OrderPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderPlacedEvent is the body of an order.placed message.
type OrderPlacedEvent struct {
	OrderID  string             `json:"order_id"`
	UserID   uint               `json:"user_id"`
	Total    float64            `json:"total"`
	Items    []models.OrderItem `json:"items"`
	PlacedAt time.Time          `json:"placed_at"`
}

// CheckoutService converts carts into stock decrements and orders.
type CheckoutService struct {
	orderRepo repositories.OrderRepository
	publisher OrderPublisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewCheckoutService creates a new CheckoutService. publisher may be nil, in
// which case no events are sent.
func NewCheckoutService(orderRepo repositories.OrderRepository, publisher OrderPublisher, m *metrics.Metrics, log zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   m,
		log:       log.With().Str("service", "checkout").Logger(),
	}
}

// Checkout places an order for every line of the cart. On success the cart
// is cleared; on failure neither stock nor the cart is touched. The caller
// must have authenticated userID.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, c *cart.Cart) (*models.Order, error) {
	lines := c.Items()
	if len(lines) == 0 {
		s.metrics.CheckoutsTotal.WithLabelValues(metrics.ResultEmptyCart).Inc()
		return nil, models.ErrEmptyCart
	}

	start := time.Now()
	order, err := s.orderRepo.PlaceOrder(ctx, userID, lines)
	s.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		result := checkoutResult(err)
		s.metrics.CheckoutsTotal.WithLabelValues(result).Inc()
		s.log.Info().Err(err).Uint("user_id", userID).Int("lines", len(lines)).Str("result", result).Msg("checkout rejected")
		return nil, err
	}

	c.Clear()
	units := order.Units()
	s.metrics.CheckoutsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.UnitsSoldTotal.Add(float64(units))
	s.log.Info().
		Str("order_id", order.ID).
		Uint("user_id", userID).
		Int("units", units).
		Float64("total", order.TotalAmount).
		Msg("order placed")

	s.publishOrderPlaced(order)
	return order, nil
}

// publishOrderPlaced sends the event after the order is committed. A failed
// publish is logged and never undoes the order.
func (s *CheckoutService) publishOrderPlaced(order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(OrderPlacedEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Total:    order.TotalAmount,
		Items:    order.Items,
		PlacedAt: order.CreatedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to marshal order event")
		return
	}
	if err := s.publisher.Publish(OrderPlacedRoutingKey, body); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order event")
	}
}

// ListOrders returns the orders of a user, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *CheckoutService) GetOrder(ctx context.Context, userID uint, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order with ID %s: %w", orderID, models.ErrNotFound)
	}
	return order, nil
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		return metrics.ResultEmptyCart
	case errors.Is(err, models.ErrCartItemMissing):
		return metrics.ResultCartItemMissing
	case errors.Is(err, models.ErrOutOfStock):
		return metrics.ResultOutOfStock
	default:
		return metrics.ResultError
	}
}
