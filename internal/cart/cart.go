// Package cart implements the session-scoped shopping cart.
//
// A cart is an ordered list of product IDs; a product appearing several
// times is bought several times. Nothing is checked when adding: missing
// products are detected at checkout.
package cart

// sessionKey is the session key the cart lines are stored under.
const sessionKey = "cart"

// Session is the key/value view of a client session.
// *session.Session from fiber's session middleware satisfies it.
type Session interface {
	Get(key string) interface{}
	Set(key string, val interface{})
	Delete(key string)
}

// Cart is a view over the cart stored in one session.
type Cart struct {
	sess Session
}

// New returns the cart of the given session.
func New(sess Session) *Cart {
	return &Cart{sess: sess}
}

// Add appends a line for productID.
func (c *Cart) Add(productID uint) {
	lines := append(c.Items(), productID)
	c.sess.Set(sessionKey, lines)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []uint {
	stored, ok := c.sess.Get(sessionKey).([]uint)
	if !ok {
		return nil
	}
	lines := make([]uint, len(stored))
	copy(lines, stored)
	return lines
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.Items())
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.sess.Delete(sessionKey)
}
