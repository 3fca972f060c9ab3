package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrdersHTTP struct {
	Svc *order.OrderService
}

func (h *OrdersHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.checkout")

	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(l, "checkout_error", "userId must be a positive integer")
	}
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_error", "invalid body")
	}

	o, err := h.Svc.Checkout(ctx, userID, req.ShippingAddress)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", o.ID)
	return c.JSON(http.StatusCreated, o)
}

func (h *OrdersHTTP) ListForUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list_for_user")

	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(l, "list_orders_error", "userId must be a positive integer")
	}
	orders, err := h.Svc.GetOrdersForUser(ctx, userID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrdersHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	orderID, ok := parseID(c, "orderId")
	if !ok {
		return badRequest(l, "get_order_error", "orderId must be a positive integer")
	}
	o, err := h.Svc.GetOrderByID(ctx, orderID)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}
