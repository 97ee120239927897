package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	if cart.IsEmpty() {
		return ok(c, http.StatusOK, "Cart is empty", cart)
	}
	return ok(c, http.StatusOK, "Cart fetched successfully", cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("add_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_cart_error", "invalid body", err)
	}

	cart, err := h.Svc.ApplyDelta(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_cart_error", err)
	}

	l.Info("cart_updated", "product_id", req.ProductID, "delta", req.Quantity, "revision", cart.Revision)
	return ok(c, http.StatusOK, "Cart updated successfully", cart)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("remove_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CartRemoveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "remove_cart_error", "invalid body", err)
	}

	cart, err := h.Svc.Remove(ctx, userID, req.ProductID)
	if err != nil {
		return fail(l, "remove_cart_error", err)
	}
	return ok(c, http.StatusOK, "Item removed from cart successfully", cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.Svc.Clear(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return ok(c, http.StatusOK, "Cart cleared successfully", cart)
}
