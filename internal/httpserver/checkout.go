package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	res, err := h.Svc.CreateOrder(ctx, userID, req.Shipping)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	return ok(c, http.StatusCreated, "Order created successfully", transport.CreateOrderResponse{
		Order:       res.Order,
		IntentID:    res.IntentID,
		AmountMinor: res.AmountMinor,
		Currency:    res.Currency,
		KeyID:       res.KeyID,
	})
}

func (h *CheckoutHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.verify_payment")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("verify_payment_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "verify_payment_error", "invalid body", err)
	}

	order, err := h.Svc.VerifyPayment(ctx, userID, service.VerifyInput{
		OrderID:   req.OrderID,
		IntentID:  req.IntentID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return fail(l, "verify_payment_error", err)
	}
	return ok(c, http.StatusOK, "Payment verified successfully", order)
}

func (h *CheckoutHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.list_orders")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, total, err := h.Svc.ListUserOrders(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return ok(c, http.StatusOK, "Orders fetched successfully", transport.OrderList{
		Total: total, Page: offset/limit + 1, Size: limit, Orders: orders,
	})
}

func (h *CheckoutHTTP) PaymentDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment_details")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("payment_details_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		return badRequest(l, "payment_details_error", "invalid order id", err)
	}

	order, err := h.Svc.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return fail(l, "payment_details_error", err)
	}
	return ok(c, http.StatusOK, "Payment details fetched successfully", order)
}
