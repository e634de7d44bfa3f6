package handlers

import (
	"errors"
	"fmt"
	"testing"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		message  string
		redirect string
	}{
		{"unauthenticated", models.ErrUnauthenticated, fiber.StatusUnauthorized, "Please log in.", "/login"},
		{"forbidden", models.ErrForbidden, fiber.StatusForbidden, "Forbidden.", "/"},
		{"username taken", fmt.Errorf("username 'a': %w", models.ErrUsernameTaken), fiber.StatusConflict, "Username already taken.", "/register"},
		{"invalid credentials", models.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials.", "/login"},
		{"empty cart", models.ErrEmptyCart, fiber.StatusBadRequest, "Cart empty.", "/cart"},
		{"cart item missing", fmt.Errorf("product 3: %w", models.ErrCartItemMissing), fiber.StatusConflict, "A product in your cart is no longer available.", "/cart"},
		{"out of stock", &models.OutOfStockError{ProductID: 1, ProductName: "Widget"}, fiber.StatusConflict, "Widget out of stock", "/cart"},
		{"not found", fmt.Errorf("product with ID 9: %w", models.ErrNotFound), fiber.StatusNotFound, "Not found.", "/admin/products"},
		{"invalid input", fmt.Errorf("bad: %w", models.ErrInvalidInput), fiber.StatusBadRequest, "Invalid input.", ""},
		{"fiber error", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed, "Method Not Allowed", ""},
		{"unexpected", errors.New("disk full"), fiber.StatusInternalServerError, "Internal server error.", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := resolveError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.redirect, resp.Redirect)
		})
	}
}

func TestResolveErrorHidesInternalDetails(t *testing.T) {
	_, resp := resolveError(errors.New("pq: password authentication failed"))
	assert.Empty(t, resp.Error)
	assert.NotContains(t, resp.Message, "pq")
}

func TestResolveErrorSameCredentialsResponse(t *testing.T) {
	codeA, respA := resolveError(models.ErrInvalidCredentials)
	codeB, respB := resolveError(fmt.Errorf("login: %w", models.ErrInvalidCredentials))
	assert.Equal(t, codeA, codeB)
	assert.Equal(t, respA, respB)
}
