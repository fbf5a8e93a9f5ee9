package subscriptions

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all subscription routes. Catalog writes are
// admin-gated; reads and checkout only require authentication.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/subscription", mw.Authenticate)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("/create-checkout", h.createCheckout)
	g.POST("", h.create, mw.RequireAdmin)
	g.PUT("/:id", h.update, mw.RequireAdmin)
	g.DELETE("/:id", h.delete, mw.RequireAdmin)
}
