package models

import "time"

// OrderStatusPlaced is the status of every order written by checkout.
const OrderStatusPlaced = "placed"

// OrderItem represents a single product within an order.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	OrderID   string  `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID uint    `json:"product_id" gorm:"not null"`
	Name      string  `json:"name" gorm:"type:varchar(100)"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	Price     float64 `json:"price"` // Price at the time of order
}

// Order is the record left behind by a successful checkout.
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      uint        `json:"user_id" gorm:"index;not null"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Units returns the number of stock units the order consumed.
func (o *Order) Units() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
