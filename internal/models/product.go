package models

import "time"

// Product represents a product in the store.
// Deletes are hard deletes, so there is no DeletedAt column.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Price     float64   `json:"price" gorm:"not null" validate:"gte=0"`
	Stock     int       `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a resolved cart line as shown in the cart view.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// CartView is the cart as presented to the customer.
type CartView struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}
