package orders

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/uploads"
	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all order routes.
func RegisterRoutes(e *echo.Echo, service *Service, uploadService *uploads.Service, mw *users.Middleware) {
	h := &handler{
		service: service,
		uploads: uploadService,
	}

	g := e.Group("/api/order", mw.Authenticate)
	g.POST("/create-order", h.create)
	g.GET("/order-details/:id", h.retrieve)
	g.GET("/all-orders", h.list, mw.RequireAdmin)
	g.PUT("/update-status/:id", h.updateStatus, mw.RequireAdmin)
}
