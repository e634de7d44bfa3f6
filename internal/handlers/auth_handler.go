package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
	router.Post("/logout", h.HandleLogout)
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=50"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Account created. Please log in.",
		"user":     user,
		"redirect": "/login",
	})
}

// HandleLogin binds the user to the session and also issues an API token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.authService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if err := middleware.LogIn(c, user.ID); err != nil {
		return err
	}
	token, err := h.authService.IssueToken(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":  "Logged in successfully.",
		"user":     user,
		"token":    token,
		"redirect": "/",
	})
}

// HandleLogout clears the identity and the cart of the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.LogOut(c)
	return c.JSON(fiber.Map{
		"message":  "Logged out.",
		"redirect": "/",
	})
}
