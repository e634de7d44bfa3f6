package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorResponse is the envelope of every failed request. Redirect names the
// page a browser client should go back to.
type ErrorResponse struct {
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// NewErrorHandler returns the fiber.ErrorHandler that turns domain errors
// into user-visible messages. Unexpected errors are logged and hidden.
func NewErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, resp := resolveError(err)
		if code >= fiber.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("unhandled error")
		}
		return c.Status(code).JSON(resp)
	}
}

func resolveError(err error) (int, ErrorResponse) {
	var outOfStock *models.OutOfStockError
	var fe *fiber.Error

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return fiber.StatusUnauthorized, ErrorResponse{Message: "Please log in.", Error: err.Error(), Redirect: "/login"}
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden, ErrorResponse{Message: "Forbidden.", Redirect: "/"}
	case errors.Is(err, models.ErrUsernameTaken):
		return fiber.StatusConflict, ErrorResponse{Message: "Username already taken.", Error: err.Error(), Redirect: "/register"}
	case errors.Is(err, models.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials.", Redirect: "/login"}
	case errors.Is(err, models.ErrEmptyCart):
		return fiber.StatusBadRequest, ErrorResponse{Message: "Cart empty.", Redirect: "/cart"}
	case errors.Is(err, models.ErrCartItemMissing):
		return fiber.StatusConflict, ErrorResponse{Message: "A product in your cart is no longer available.", Error: err.Error(), Redirect: "/cart"}
	case errors.As(err, &outOfStock):
		return fiber.StatusConflict, ErrorResponse{Message: outOfStock.Error(), Error: models.ErrOutOfStock.Error(), Redirect: "/cart"}
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse{Message: "Not found.", Error: err.Error(), Redirect: "/admin/products"}
	case errors.Is(err, models.ErrInvalidInput):
		return fiber.StatusBadRequest, ErrorResponse{Message: "Invalid input.", Error: err.Error()}
	case errors.As(err, &fe):
		return fe.Code, ErrorResponse{Message: fe.Message}
	}
	return fiber.StatusInternalServerError, ErrorResponse{Message: "Internal server error.", Redirect: "/"}
}

// validationFailed renders validator errors per field.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// badBody is returned when the request body cannot be parsed.
func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Message: "Invalid request body",
		Error:   err.Error(),
	})
}

// parseID reads a positive integer route parameter. Anything else names no
// record, so it is reported as not found.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Params(name), models.ErrNotFound)
	}
	return uint(id), nil
}
