package httpserver

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	*models.User
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta PageMeta         `json:"meta"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func newProductPage(p *catalog.Page) ProductPage {
	return ProductPage{
		Data: p.Items,
		Meta: PageMeta{
			Page:       p.Page,
			Size:       p.Size,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasPrev:    p.Page > 1,
			HasNext:    int64(p.Page) < p.TotalPages,
		},
	}
}

// Cart requests use pointers so a missing field is told apart from zero.
type AddItemRequest struct {
	UserID    *uint `json:"userId"`
	ProductID *uint `json:"productId"`
	Quantity  *int  `json:"quantity"`
}

type RemoveItemRequest struct {
	UserID    *uint `json:"userId"`
	ProductID *uint `json:"productId"`
}

type UpdateQuantityRequest struct {
	UserID      *uint `json:"userId"`
	ProductID   *uint `json:"productId"`
	NewQuantity *int  `json:"newQuantity"`
}

type UpdateQuantityResponse struct {
	Removed bool               `json:"removed"`
	Item    *cart.CartItemView `json:"item,omitempty"`
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
