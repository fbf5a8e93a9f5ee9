package reports

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

// RegisterRoutes registers the admin reporting routes.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/report", mw.Authenticate, mw.RequireAdmin)
	g.GET("/income-report", h.income)
	g.GET("/subscriber-growth", h.subscriberGrowth)
}

func (h *handler) income(c echo.Context) error {
	report, err := h.service.Income(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *handler) subscriberGrowth(c echo.Context) error {
	growth, err := h.service.SubscriberGrowth(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, growth)
}
