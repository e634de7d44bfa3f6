package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the public catalog and the home page.
type ProductHandler struct {
	service     *services.ProductService
	authService *services.AuthService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, authService *services.AuthService) *ProductHandler {
	return &ProductHandler{
		service:     service,
		authService: authService,
	}
}

// RegisterRoutes registers the catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// HomeView is the model of the landing page.
type HomeView struct {
	Products []models.Product `json:"products"`
	User     *models.User     `json:"user"`
}

// HandleHome lists the catalog together with the logged-in user, if any.
func (h *ProductHandler) HandleHome(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	view := HomeView{Products: products}
	if id, ok := middleware.UserID(c); ok {
		// A stale session for a vanished user simply renders as anonymous.
		if user, err := h.authService.GetUser(c.UserContext(), id); err == nil {
			view.User = user
		}
	}
	return c.JSON(view)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// AdminHandler serves product CRUD. Its routes must sit behind RequireAdmin.
type AdminHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.ProductService) *AdminHandler {
	return &AdminHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the admin product routes.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Post("/", h.HandleCreate)
	productRoutes.Get("/:id", h.HandleGet)
	productRoutes.Put("/:id", h.HandleUpdate)
	productRoutes.Delete("/:id", h.HandleDelete)
}

// ProductRequest is the body of create and update. Every field is required:
// an update replaces name, price and stock as a whole.
type ProductRequest struct {
	Name  string   `json:"name" form:"name" validate:"required,max=100"`
	Price *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Stock *int     `json:"stock" form:"stock" validate:"required,gte=0"`
}

// parseProduct decodes and validates the body. A nil product means the 400
// response has already been written and the returned error is the handler's result.
func (h *AdminHandler) parseProduct(c *fiber.Ctx) (*models.Product, error) {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, validationFailed(c, err)
	}
	return &models.Product{Name: req.Name, Price: *req.Price, Stock: *req.Stock}, nil
}

// HandleList lists every product.
func (h *AdminHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleGet returns the product being edited.
func (h *AdminHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreate adds a product.
func (h *AdminHandler) HandleCreate(c *fiber.Ctx) error {
	product, err := h.parseProduct(c)
	if product == nil {
		return err
	}
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate replaces name, price and stock of a product.
func (h *AdminHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.parseProduct(c)
	if product == nil {
		return err
	}
	product.ID = id
	if err := h.service.UpdateProduct(c.UserContext(), product); err != nil {
		return err
	}
	updated, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// HandleDelete removes a product for good.
func (h *AdminHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %d deleted successfully", id),
	})
}
