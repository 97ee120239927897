package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type AdminHTTP struct {
	Orders    *service.AdminOrderService
	Dashboard *service.DashboardService
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, total, err := h.Orders.List(ctx, service.OrderQuery{
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("userId"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return ok(c, http.StatusOK, "Orders fetched successfully", transport.OrderList{
		Total: total, Page: offset/limit + 1, Size: limit, Orders: orders,
	})
}

func (h *AdminHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "get_order_error", "invalid order id", err)
	}
	order, err := h.Orders.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return ok(c, http.StatusOK, "Order fetched successfully", order)
}

func (h *AdminHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_order")

	var req transport.AdminCreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	order, err := h.Orders.CreateByAdmin(ctx, req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}
	l.Info("admin_order_created", "order_id", order.ID, "intent_id", order.IntentID)
	return ok(c, http.StatusCreated, "Order created successfully", order)
}

func (h *AdminHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "update_order_error", "invalid order id", err)
	}
	var req transport.AdminUpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_error", "invalid body", err)
	}

	order, err := h.Orders.Update(ctx, id, req)
	if err != nil {
		return fail(l, "update_order_error", err)
	}
	return ok(c, http.StatusOK, "Order updated successfully", order)
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "delete_order_error", "invalid order id", err)
	}
	if err := h.Orders.Delete(ctx, id); err != nil {
		return fail(l, "delete_order_error", err)
	}
	return ok(c, http.StatusOK, "Order deleted successfully", nil)
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	stats, err := h.Dashboard.Stats(ctx)
	if err != nil {
		l.Error("dashboard_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch dashboard stats")
	}
	return ok(c, http.StatusOK, "Dashboard stats fetched successfully", stats)
}
