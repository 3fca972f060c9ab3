package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"userID"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Token    string    `json:"token,omitempty"`
	At       time.Time `json:"at"`
}

type CartEvent struct {
	Type      string    `json:"type"`
	UserID    uint      `json:"userID"`
	ProductID uint      `json:"productID,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type ProductEvent struct {
	Type      string          `json:"type"`
	ProductID uint            `json:"productID"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	At        time.Time       `json:"at"`
}

type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     uint            `json:"orderID"`
	UserID      uint            `json:"userID"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	At          time.Time       `json:"at"`
}

const (
	UserRegistered         = "user_registered"
	UserLocked             = "user_locked"
	PasswordResetRequested = "password_reset_requested"
	PasswordReset          = "password_reset"

	CartItemAdded   = "cart_item_added"
	CartItemUpdated = "cart_item_updated"
	CartItemRemoved = "cart_item_removed"
	CartCleared     = "cart_cleared"

	ProductCreated = "product_created"
	ProductUpdated = "product_updated"
	ProductDeleted = "product_deleted"

	OrderPlaced = "order_placed"
)
