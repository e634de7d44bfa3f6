package middleware

import (
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Identify resolves the caller's user ID from the session, or else from an
// "Authorization: Bearer <token>" header, and stores it for the guards.
// Anonymous requests pass through; a malformed or expired token does not.
func Identify(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess := SessionFrom(c); sess != nil {
			if id, ok := sess.Get(sessionUserKey).(uint); ok && id > 0 {
				c.Locals(localUserID, id)
				return c.Next()
			}
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return fmt.Errorf("authorization header format must be 'Bearer <token>': %w", models.ErrUnauthenticated)
		}

		id, err := authService.UserIDFromToken(parts[1])
		if err != nil {
			return fmt.Errorf("%v: %w", err, models.ErrUnauthenticated)
		}
		c.Locals(localUserID, id)
		return c.Next()
	}
}

// UserID returns the identity resolved by Identify.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok && id > 0
}

// CurrentUser returns the admin loaded by RequireAdmin, if any.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// RequireLogin rejects anonymous requests with models.ErrUnauthenticated.
func RequireLogin(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if err := authService.RequireLogin(c.UserContext(), id, ok); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin rejects everyone but administrators with models.ErrForbidden.
func RequireAdmin(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		user, err := authService.RequireAdmin(c.UserContext(), id, ok)
		if err != nil {
			return err
		}
		c.Locals(localUser, user)
		return c.Next()
	}
}
