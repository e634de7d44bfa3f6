package middleware

import (
	"fmt"

	"storefront/internal/cart"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	localSession = "session"
	localUserID  = "user_id"
	localUser    = "user"

	sessionUserKey = "user_id"
)

// Session loads the request's session into the context and saves it once the
// rest of the chain has run. Handlers reach it through SessionFrom and Cart.
func Session(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		c.Locals(localSession, sess)

		err = c.Next()

		// No-op when a handler already saved.
		if saveErr := SaveSession(c); saveErr != nil && err == nil {
			err = saveErr
		}
		return err
	}
}

// SaveSession persists the session now instead of after the chain. Save
// releases the session, so it is detached from the context either way. When
// the save fails the stored session is destroyed, so a stale cart or login
// cannot outlive the request.
func SaveSession(c *fiber.Ctx) error {
	sess := SessionFrom(c)
	if sess == nil {
		return nil
	}
	c.Locals(localSession, nil)

	saveErr := sess.Save()
	if saveErr == nil {
		return nil
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("failed to save session: %w (destroy: %v)", saveErr, err)
	}
	return fmt.Errorf("failed to save session: %w", saveErr)
}

// SessionFrom returns the session loaded by Session, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

// Cart returns the cart of the current session.
func Cart(c *fiber.Ctx) *cart.Cart {
	return cart.New(SessionFrom(c))
}

// LogIn binds userID to the session under a fresh session ID.
func LogIn(c *fiber.Ctx, userID uint) error {
	sess := SessionFrom(c)
	if sess == nil {
		return fmt.Errorf("no session loaded")
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(sessionUserKey, userID)
	c.Locals(localUserID, userID)
	return nil
}

// LogOut unbinds the user and drops the cart.
func LogOut(c *fiber.Ctx) {
	sess := SessionFrom(c)
	if sess == nil {
		return
	}
	sess.Delete(sessionUserKey)
	cart.New(sess).Clear()
	c.Locals(localUserID, nil)
}
