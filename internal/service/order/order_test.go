package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/service/cart"
)

type fakeNotifier struct {
	got []events.OrderEvent
	err error
}

func (f *fakeNotifier) NotifyOrderPlaced(_ context.Context, ev events.OrderEvent) error {
	f.got = append(f.got, ev)
	return f.err
}

type fixture struct {
	repo     *repo.GormRepo
	orders   *OrderService
	carts    *cart.CartService
	rec      *events.Recorder
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := repotest.NewRepo(t)
	rec := &events.Recorder{}
	n := &fakeNotifier{}
	return &fixture{
		repo:     r,
		orders:   &OrderService{Repo: r, Events: rec, Notifier: n},
		carts:    &cart.CartService{Repo: r, Cfg: config.CartConfig{MaxItems: 20}},
		rec:      rec,
		notifier: n,
	}
}

func countOrders(t *testing.T, r *repo.GormRepo) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestOrderService_Checkout_SnapshotsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")
	a := repotest.SeedProduct(t, f.repo, "A", "10.00")
	b := repotest.SeedProduct(t, f.repo, "B", "5.00")

	_, err := f.carts.AddItem(ctx, u.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, u.ID, b.ID, 3)
	require.NoError(t, err)

	o, err := f.orders.Checkout(ctx, u.ID, "1 Main St")
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("35.00")), o.TotalAmount.String())
	assert.Equal(t, models.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, o.OrderStatus)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].ItemPrice.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "A", o.Items[0].ProductName)
	assert.True(t, o.Items[1].ItemPrice.Equal(decimal.RequireFromString("5.00")))

	_, err = f.carts.GetCart(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrCartNotFound)

	require.Len(t, f.rec.Messages(events.TopicOrders), 1)
	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, o.ID, f.notifier.got[0].OrderID)
	assert.Equal(t, 2, f.notifier.got[0].ItemCount)

	// later price changes do not touch the snapshot
	require.NoError(t, f.repo.DB.Model(&models.Product{}).Where("id = ?", a.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)
	stored, err := f.orders.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("35.00")))
	assert.True(t, stored.Items[0].ItemPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestOrderService_Checkout_InvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")
	p := repotest.SeedProduct(t, f.repo, "A", "10.00")

	_, err := f.orders.Checkout(ctx, u.ID, "1 Main St")
	assert.ErrorIs(t, err, apperr.ErrBusinessRule, "no cart")

	_, err = f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.carts.Clear(ctx, u.ID))

	_, err = f.orders.Checkout(ctx, u.ID, "1 Main St")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	assert.Zero(t, countOrders(t, f.repo))
	assert.Empty(t, f.notifier.got)
}

func TestOrderService_Checkout_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")

	_, err := f.orders.Checkout(ctx, u.ID, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.orders.Checkout(ctx, u.ID, strings.Repeat("x", 501))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.orders.Checkout(ctx, 999, "1 Main St")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestOrderService_Checkout_DeletedProductRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")
	a := repotest.SeedProduct(t, f.repo, "A", "10.00")

	_, err := f.carts.AddItem(ctx, u.ID, a.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.repo.DB.Delete(&models.Product{}, a.ID).Error)

	_, err = f.orders.Checkout(ctx, u.ID, "1 Main St")
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	assert.Zero(t, countOrders(t, f.repo))

	_, err = f.repo.CartByUser(ctx, u.ID, false)
	assert.NoError(t, err, "cart survives a failed checkout")
}

func TestOrderService_Checkout_NotifierFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")
	p := repotest.SeedProduct(t, f.repo, "A", "10.00")

	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.orders.Checkout(ctx, u.ID, "1 Main St")
	require.NoError(t, err)
	assert.EqualValues(t, 1, countOrders(t, f.repo))
}

func TestOrderService_Queries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, f.repo, "alice")

	orders, err := f.orders.GetOrdersForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	now := time.Now().UTC()
	older := &models.Order{UserID: u.ID, OrderDate: now.Add(-time.Hour), TotalAmount: decimal.NewFromInt(1),
		ShippingAddress: "x", PaymentStatus: models.PaymentStatusPending, OrderStatus: models.OrderStatusProcessing}
	newer := &models.Order{UserID: u.ID, OrderDate: now, TotalAmount: decimal.NewFromInt(2),
		ShippingAddress: "x", PaymentStatus: models.PaymentStatusPending, OrderStatus: models.OrderStatusProcessing}
	require.NoError(t, f.repo.CreateOrder(ctx, older))
	require.NoError(t, f.repo.CreateOrder(ctx, newer))

	orders, err = f.orders.GetOrdersForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)

	_, err = f.orders.GetOrdersForUser(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	got, err := f.orders.GetOrderByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = f.orders.GetOrderByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}
