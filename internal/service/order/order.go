package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const maxShippingAddress = 500

// Notifier hands placed orders to downstream fulfilment.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, ev events.OrderEvent) error
}

type OrderService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Notifier Notifier
}

// Checkout turns the user's cart into an order and deletes the cart, all in
// one transaction. Prices are snapshotted from the current products.
func (s *OrderService) Checkout(ctx context.Context, userID uint, shippingAddress string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout", "user_id", userID)

	addr := strings.TrimSpace(shippingAddress)
	if addr == "" {
		return nil, apperr.Validation("shipping address is required")
	}
	if utf8.RuneCountInString(addr) > maxShippingAddress {
		return nil, apperr.Validation("shipping address must be at most %d characters", maxShippingAddress)
	}

	var order *models.Order
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrUserNotFound
		}

		if _, err := tx.CartByUser(ctx, userID, true); err != nil {
			if errors.Is(err, apperr.ErrCartNotFound) {
				return apperr.ErrNoCart
			}
			return err
		}
		cart, err := tx.CartWithItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return apperr.ErrEmptyCart
		}

		o := &models.Order{
			UserID:          userID,
			OrderDate:       time.Now().UTC(),
			ShippingAddress: addr,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusProcessing,
			TotalAmount:     decimal.Zero,
			Items:           make([]models.OrderItem, 0, len(cart.Items)),
		}
		for _, ci := range cart.Items {
			p, err := tx.ProductByID(ctx, ci.ProductID)
			if err != nil {
				return err
			}
			item := models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				ItemPrice:   p.Price,
				Quantity:    ci.Quantity,
			}
			o.Items = append(o.Items, item)
			o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
		}

		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.DeleteCart(ctx, cart.ID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		if apperr.StatusOf(err) >= 500 {
			l.Error("checkout_error", "status", 500, "error", err)
		} else {
			l.Warn("checkout_error", "status", apperr.StatusOf(err), "reason", apperr.Message(err))
		}
		return nil, err
	}

	ev := events.OrderEvent{
		Type:        events.OrderPlaced,
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		At:          order.OrderDate,
	}
	events.Emit(ctx, s.Events, events.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), ev)
	s.notify(ctx, ev)

	l.Info("order_placed", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	return order, nil
}

func (s *OrderService) notify(ctx context.Context, ev events.OrderEvent) {
	if s.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Notifier.NotifyOrderPlaced(nctx, ev); err != nil {
		logging.FromContext(ctx).Warn("order_notify_failed", "order_id", ev.OrderID, "error", err)
	}
}

// GetOrdersForUser lists the user's orders newest first.
func (s *OrderService) GetOrdersForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	ok, err := s.Repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return s.Repo.OrdersByUser(ctx, userID)
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.Repo.OrderByID(ctx, orderID)
}
