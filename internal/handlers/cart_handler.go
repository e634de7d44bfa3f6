package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CartHandler handles the session cart, checkout and order history.
type CartHandler struct {
	productService  *services.ProductService
	checkoutService *services.CheckoutService
	log             zerolog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(productService *services.ProductService, checkoutService *services.CheckoutService, log zerolog.Logger) *CartHandler {
	return &CartHandler{
		productService:  productService,
		checkoutService: checkoutService,
		log:             log,
	}
}

// RegisterRoutes registers the cart, checkout and order routes, each behind
// requireLogin.
func (h *CartHandler) RegisterRoutes(router fiber.Router, requireLogin fiber.Handler) {
	router.Get("/cart", requireLogin, h.HandleViewCart)
	router.Post("/cart/items/:id", requireLogin, h.HandleAddToCart)
	router.Post("/checkout", requireLogin, h.HandleCheckout)
	router.Get("/orders", requireLogin, h.HandleGetOrders)
	router.Get("/orders/:id", requireLogin, h.HandleGetOrderByID)
}

// HandleAddToCart appends a line. The product is not looked up here.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	cart := middleware.Cart(c)
	cart.Add(id)
	return c.JSON(fiber.Map{
		"message":  "Product added to cart.",
		"cart":     cart.Items(),
		"redirect": "/cart",
	})
}

// HandleViewCart shows the cart lines with their current prices and total.
func (h *CartHandler) HandleViewCart(c *fiber.Ctx) error {
	view, err := h.productService.CartView(c.UserContext(), middleware.Cart(c).Items())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// HandleCheckout places the order for the whole cart. The emptied cart is
// saved here; once the order is committed a failed save must not turn the
// response into an error, or a retry would buy the same cart twice.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	order, err := h.checkoutService.Checkout(c.UserContext(), userID, middleware.Cart(c))
	if err != nil {
		return err
	}
	if err := middleware.SaveSession(c); err != nil {
		h.log.Warn().Err(err).
			Str("order_id", order.ID).
			Uint("user_id", userID).
			Msg("order placed but session could not be saved")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Order placed successfully!",
		"order":    order,
		"redirect": "/",
	})
}

// HandleGetOrders lists the caller's orders.
func (h *CartHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	orders, err := h.checkoutService.ListOrders(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns one of the caller's orders.
func (h *CartHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	order, err := h.checkoutService.GetOrder(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}
