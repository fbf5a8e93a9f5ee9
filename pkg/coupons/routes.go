package coupons

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all coupon routes. Everything but apply is
// admin-gated.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/coupon", mw.Authenticate)
	g.POST("/apply", h.apply)
	g.POST("/create", h.create, mw.RequireAdmin)
	g.PUT("/update/:id", h.update, mw.RequireAdmin)
	g.DELETE("/delete/:id", h.delete, mw.RequireAdmin)
	g.GET("/list", h.list, mw.RequireAdmin)
}
