package sections

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all section routes. Writes are admin-gated, reads
// only require authentication.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/section", mw.Authenticate)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, mw.RequireAdmin)
	g.PUT("/:id", h.update, mw.RequireAdmin)
	g.DELETE("/:id", h.delete, mw.RequireAdmin)
}
