package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	AdminHandler    *AdminHTTP
	JWTSecret       []byte
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

// New builds the echo instance with the shared middleware chain and all routes.
func New(logger *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	requireAuth := authmw.RequireAuth(d.JWTSecret)
	adminOnly := authmw.RequireRole(models.RoleAdmin)
	anyRole := authmw.RequireRole(models.RoleUser, models.RoleAdmin)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.GET("/profile", d.AuthHandler.Profile, requireAuth, anyRole)
	auth.PUT("/profile", d.AuthHandler.UpdateProfile, requireAuth, anyRole)
	auth.GET("/users", d.AuthHandler.ListUsers, requireAuth, adminOnly)
	auth.PUT("/users/role", d.AuthHandler.SetRole, requireAuth, adminOnly)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.ListProducts)
	products.GET("/search", d.CatalogHandler.Search)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, requireAuth, adminOnly)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, requireAuth, adminOnly)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, requireAuth, adminOnly)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add", d.CartHandler.AddToCart)
	cart.POST("/remove", d.CartHandler.RemoveFromCart)
	cart.POST("/clear", d.CartHandler.ClearCart)

	checkout := api.Group("/checkout", requireAuth)
	checkout.POST("/create-order", d.CheckoutHandler.CreateOrder)
	checkout.POST("/verify-payment", d.CheckoutHandler.VerifyPayment)
	checkout.GET("/orders", d.CheckoutHandler.ListOrders)
	checkout.GET("/payment/:orderId", d.CheckoutHandler.PaymentDetails)

	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.POST("/orders", d.AdminHandler.CreateOrder)
	admin.GET("/orders/:id", d.AdminHandler.GetOrder)
	admin.PUT("/orders/:id", d.AdminHandler.UpdateOrder)
	admin.DELETE("/orders/:id", d.AdminHandler.DeleteOrder)
	admin.GET("/dashboard", d.AdminHandler.Stats)
}
