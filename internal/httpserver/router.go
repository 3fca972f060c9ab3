package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB       Pinger
	Users    *UsersHTTP
	Products *ProductsHTTP
	Search   *SearchHTTP
	Cart     *CartHTTP
	Orders   *OrdersHTTP

	RequireAuth  echo.MiddlewareFunc
	LoginLimiter echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/register", d.Users.Register)
	if d.LoginLimiter != nil {
		users.POST("/login", d.Users.Login, d.LoginLimiter)
	} else {
		users.POST("/login", d.Users.Login)
	}
	users.POST("/request-password-reset", d.Users.RequestPasswordReset)
	users.PUT("/reset-password", d.Users.ResetPassword)

	products := api.Group("/products", d.RequireAuth)
	products.GET("", d.Products.List)
	products.GET("/search", d.Search.Search)
	products.GET("/:id", d.Products.Get)
	products.POST("", d.Products.Create)
	products.PUT("/:id", d.Products.Update)
	products.DELETE("/:id", d.Products.Delete)

	cart := api.Group("/cart", d.RequireAuth)
	cart.POST("/add", d.Cart.AddItem)
	cart.DELETE("/remove", d.Cart.RemoveItem)
	cart.PUT("/updateQuantity", d.Cart.UpdateQuantity)
	cart.GET("/:userId", d.Cart.GetCart)
	cart.DELETE("/:userId", d.Cart.Clear)

	orders := api.Group("/orders", d.RequireAuth)
	orders.POST("/:userId/checkout", d.Orders.Checkout)
	orders.GET("/user/:userId", d.Orders.ListForUser)
	orders.GET("/:orderId", d.Orders.Get)
}
