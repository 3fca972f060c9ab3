package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

// EnsureCart returns the user's cart, creating it when absent, and locks the
// cart row. Concurrent first adds race on the unique user_id index; the loser's
// insert is a no-op and both end up with the same row.
func (r *GormRepo) EnsureCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := r.db(ctx, false).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error; err != nil {
		return nil, err
	}
	return r.CartByUser(ctx, userID, true)
}

func (r *GormRepo) CartByUser(ctx context.Context, userID uint, forUpdate bool) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db(ctx, forUpdate).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, mapErr(err, apperr.ErrCartNotFound)
	}
	return &cart, nil
}

// CartWithItems loads the cart with its lines and their products, oldest line first.
func (r *GormRepo) CartWithItems(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db(ctx, false).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, mapErr(err, apperr.ErrCartNotFound)
	}
	return &cart, nil
}

func (r *GormRepo) CartItem(ctx context.Context, cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db(ctx, false).Preload("Product").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, mapErr(err, apperr.ErrItemNotFound)
	}
	return &item, nil
}

func (r *GormRepo) CountCartItems(ctx context.Context, cartID uint) (int64, error) {
	var n int64
	err := r.db(ctx, false).Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return mapErr(r.db(ctx, false).Omit("Product").Create(item).Error, apperr.ErrItemNotFound)
}

// IncrementCartItem adds delta to the stored quantity in SQL, so it merges
// with whatever value is committed rather than a stale read.
func (r *GormRepo) IncrementCartItem(ctx context.Context, itemID uint, delta int) error {
	return r.db(ctx, false).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	return r.db(ctx, false).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, itemID uint) error {
	return r.db(ctx, false).Delete(&models.CartItem{}, itemID).Error
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.db(ctx, false).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// DeleteCart removes the cart together with its lines.
func (r *GormRepo) DeleteCart(ctx context.Context, cartID uint) error {
	if err := r.ClearCart(ctx, cartID); err != nil {
		return err
	}
	return r.db(ctx, false).Delete(&models.Cart{}, cartID).Error
}
