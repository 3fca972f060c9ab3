package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *cart.CartService
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item_error", "invalid body")
	}
	if req.UserID == nil || req.ProductID == nil || req.Quantity == nil {
		return badRequest(l, "add_item_error", "userId, productId and quantity are required")
	}

	item, err := h.Svc.AddItem(ctx, *req.UserID, *req.ProductID, *req.Quantity)
	if err != nil {
		return fail(l, "add_item_error", err)
	}

	l.Info("add_item_success", "cart_item_id", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	var req RemoveItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "remove_item_error", "invalid body")
	}
	if req.UserID == nil || req.ProductID == nil {
		return badRequest(l, "remove_item_error", "userId and productId are required")
	}

	removed, err := h.Svc.RemoveItem(ctx, *req.UserID, *req.ProductID)
	if err != nil {
		return fail(l, "remove_item_error", err)
	}
	if !removed {
		l.Warn("remove_item_error", "status", http.StatusNotFound, "reason", "item not in cart")
		return echo.NewHTTPError(http.StatusNotFound, "product not found in cart")
	}

	l.Info("remove_item_success")
	return c.JSON(http.StatusOK, MessageResponse{Message: "item removed from cart"})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_quantity_error", "invalid body")
	}
	if req.UserID == nil || req.ProductID == nil || req.NewQuantity == nil {
		return badRequest(l, "update_quantity_error", "userId, productId and newQuantity are required")
	}

	item, removed, err := h.Svc.UpdateQuantity(ctx, *req.UserID, *req.ProductID, *req.NewQuantity)
	if err != nil {
		return fail(l, "update_quantity_error", err)
	}
	if *req.NewQuantity == 0 && !removed {
		l.Warn("update_quantity_error", "status", http.StatusNotFound, "reason", "item not in cart")
		return echo.NewHTTPError(http.StatusNotFound, "product not found in cart")
	}

	l.Info("update_quantity_success", "removed", removed)
	return c.JSON(http.StatusOK, UpdateQuantityResponse{Removed: removed, Item: item})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(l, "get_cart_error", "userId must be a positive integer")
	}
	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(l, "clear_cart_error", "userId must be a positive integer")
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, MessageResponse{Message: "cart cleared"})
}
