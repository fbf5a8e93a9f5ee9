package notifications

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

// RegisterRoutes registers the admin notification routes.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/notification", mw.Authenticate, mw.RequireAdmin)
	g.GET("", h.list)
	g.PUT("/:id/read", h.markRead)
}

func (h *handler) list(c echo.Context) error {
	notifications, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *handler) markRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Notification")
	}
	notification, err := h.service.MarkRead(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notification)
}
