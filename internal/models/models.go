package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type ProductType string

const (
	ProductTypeOneTime      ProductType = "ONE_TIME"
	ProductTypeSubscription ProductType = "SUBSCRIPTION"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeOneTime, ProductTypeSubscription:
		return true
	}
	return false
}

const (
	PaymentStatusPending  = "PENDING"
	OrderStatusProcessing = "PROCESSING"
)

type User struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement"         json:"id"`
	Username            string     `gorm:"size:255;uniqueIndex;not null"    json:"username"`
	Email               string     `gorm:"size:255;uniqueIndex;not null"    json:"email"`
	PasswordHash        string     `gorm:"not null"                         json:"-"`
	Role                string     `gorm:"size:32;not null"                 json:"role"`
	FailedLoginAttempts int        `gorm:"not null;default:0"               json:"-"`
	AccountLocked       bool       `gorm:"not null;default:false"           json:"-"`
	LockTime            *time.Time `                                        json:"-"`
	CreatedAt           time.Time  `                                        json:"-"`
	UpdatedAt           time.Time  `                                        json:"-"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"size:255;not null"            json:"name"`
	Description string          `gorm:"size:1000;not null"           json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"  json:"price"`
	Type        ProductType     `gorm:"size:32;not null"             json:"type"`
	ImageURL    string          `gorm:"size:500"                     json:"imageUrl,omitempty"`
	CreatedAt   time.Time       `                                    json:"-"`
	UpdatedAt   time.Time       `                                    json:"-"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"   json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"       json:"userId"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"cartItems"`
	CreatedAt time.Time  `                                  json:"-"`
	UpdatedAt time.Time  `                                  json:"-"`
}

// CartItem is unique per (cart, product); repeated adds merge into the same row.
type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"                            json:"id"`
	CartID    uint    `gorm:"uniqueIndex:idx_cart_product;not null"               json:"-"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null"               json:"productId"`
	Product   Product `gorm:"constraint:OnDelete:CASCADE"                         json:"product"`
	Quantity  int     `gorm:"not null;check:quantity > 0"                         json:"quantity"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID          uint            `gorm:"index;not null"                    json:"userId"`
	OrderDate       time.Time       `gorm:"not null"                          json:"orderDate"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null"       json:"totalAmount"`
	ShippingAddress string          `gorm:"size:500;not null"                 json:"shippingAddress"`
	PaymentStatus   string          `gorm:"size:50;not null"                  json:"paymentStatus"`
	OrderStatus     string          `gorm:"size:50;not null"                  json:"orderStatus"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"       json:"orderItems"`
}

// OrderItem holds a snapshot of the product at checkout; it has no foreign key to products.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID     uint            `gorm:"index;not null"               json:"-"`
	ProductID   uint            `gorm:"not null"                     json:"productId"`
	ProductName string          `gorm:"size:255;not null"            json:"productName"`
	ItemPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null"  json:"itemPrice"`
	Quantity    int             `gorm:"not null"                     json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.ItemPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type PasswordResetToken struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Token      string    `gorm:"size:64;uniqueIndex;not null"`
	UserID     uint      `gorm:"index;not null"`
	ExpiryDate time.Time `gorm:"not null"`
}

func (t PasswordResetToken) Expired(now time.Time) bool {
	return t.ExpiryDate.Before(now)
}

// All lists every table for AutoMigrate in dependency order.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&PasswordResetToken{},
	}
}
