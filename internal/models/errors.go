package models

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these to HTTP responses; anything else is a 500.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCart          = errors.New("cart empty")
	ErrCartItemMissing    = errors.New("cart item no longer exists")
	ErrOutOfStock         = errors.New("out of stock")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// OutOfStockError names the product that failed the stock check.
type OutOfStockError struct {
	ProductID   uint
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s out of stock", e.ProductName)
}

// Is makes errors.Is(err, ErrOutOfStock) match.
func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}
