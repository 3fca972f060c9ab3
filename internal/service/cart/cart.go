package cart

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Cfg    config.CartConfig
	Events events.Publisher
}

type CartItemView struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type CartView struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"userId"`
	Items      []CartItemView  `json:"cartItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func itemView(item *models.CartItem, p *models.Product) *CartItemView {
	return &CartItemView{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: p.Name,
		Price:       p.Price,
		Quantity:    item.Quantity,
	}
}

func (s *CartService) emit(ctx context.Context, typ string, userID, productID uint, quantity int) {
	events.Emit(ctx, s.Events, events.TopicCarts, strconv.FormatUint(uint64(userID), 10), events.CartEvent{
		Type:      typ,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		At:        time.Now().UTC(),
	})
}

func requireUser(ctx context.Context, tx *repo.GormRepo, userID uint) error {
	ok, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrUserNotFound
	}
	return nil
}

// AddItem merges into an existing line additively; only a new line is
// checked against the distinct-product cap.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartItemView, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add_item", "user_id", userID, "product_id", productID)

	if quantity <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}

	var view *CartItemView
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		v, err := s.addItem(ctx, tx, userID, productID, quantity)
		view = v
		return err
	})
	if err != nil {
		if apperr.StatusOf(err) >= 500 {
			l.Error("add_item_error", "status", 500, "error", err)
		}
		return nil, err
	}

	s.emit(ctx, events.CartItemAdded, userID, productID, quantity)
	return view, nil
}

func (s *CartService) addItem(ctx context.Context, tx *repo.GormRepo, userID, productID uint, quantity int) (*CartItemView, error) {
	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, err
	}
	product, err := tx.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := tx.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := tx.CartItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		if err := tx.IncrementCartItem(ctx, item.ID, quantity); err != nil {
			return nil, err
		}
		item.Quantity += quantity
	case errors.Is(err, apperr.ErrItemNotFound):
		n, err := tx.CountCartItems(ctx, cart.ID)
		if err != nil {
			return nil, err
		}
		if n >= int64(s.Cfg.MaxItems) {
			return nil, apperr.ErrCartLimitExceeded
		}
		item = &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := tx.CreateCartItem(ctx, item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return itemView(item, product), nil
}

// RemoveItem reports whether a line was deleted. A missing cart is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) (bool, error) {
	var removed bool
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		ok, err := removeItem(ctx, tx, userID, productID)
		removed = ok
		return err
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.emit(ctx, events.CartItemRemoved, userID, productID, 0)
	}
	return removed, nil
}

func removeItem(ctx context.Context, tx *repo.GormRepo, userID, productID uint) (bool, error) {
	cart, err := tx.CartByUser(ctx, userID, true)
	if errors.Is(err, apperr.ErrCartNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	item, err := tx.CartItem(ctx, cart.ID, productID)
	if errors.Is(err, apperr.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, tx.DeleteCartItem(ctx, item.ID)
}

// UpdateQuantity sets the line to newQuantity. Zero removes the line and
// returns (nil, removed, nil); a missing line is added under the usual cap.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uint, newQuantity int) (*CartItemView, bool, error) {
	if newQuantity < 0 {
		return nil, false, apperr.ErrNegativeQuantity
	}
	if newQuantity == 0 {
		removed, err := s.RemoveItem(ctx, userID, productID)
		return nil, removed, err
	}

	var (
		view  *CartItemView
		added bool
	)
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		cart, err := tx.CartByUser(ctx, userID, true)
		if err != nil && !errors.Is(err, apperr.ErrCartNotFound) {
			return err
		}
		if cart != nil {
			item, err := tx.CartItem(ctx, cart.ID, productID)
			if err == nil {
				if err := tx.SetCartItemQuantity(ctx, item.ID, newQuantity); err != nil {
					return err
				}
				item.Quantity = newQuantity
				view = itemView(item, &item.Product)
				return nil
			}
			if !errors.Is(err, apperr.ErrItemNotFound) {
				return err
			}
		}
		added = true
		view, err = s.addItem(ctx, tx, userID, productID, newQuantity)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	typ := events.CartItemUpdated
	if added {
		typ = events.CartItemAdded
	}
	s.emit(ctx, typ, userID, productID, newQuantity)
	return view, false, nil
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := s.Repo.CartWithItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      make([]CartItemView, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		view.Items = append(view.Items, *itemView(item, &item.Product))
		view.TotalPrice = view.TotalPrice.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return view, nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.CartByUser(ctx, userID, true)
		if err != nil {
			return err
		}
		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.CartCleared, userID, 0, 0)
	return nil
}
