package questions

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all question routes. Writes are admin-gated.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/question", mw.Authenticate)
	g.GET("/section/:sectionId", h.listBySection)
	g.POST("", h.createBatch, mw.RequireAdmin)
	g.PUT("/:id", h.update, mw.RequireAdmin)
	g.DELETE("/:id", h.delete, mw.RequireAdmin)
}
