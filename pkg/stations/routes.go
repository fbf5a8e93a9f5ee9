package stations

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

type createStationPayload struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=10"`
	City string `json:"city" validate:"max=100"`
}

type updateStationPayload struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Code *string `json:"code" validate:"omitempty,max=10"`
	City *string `json:"city" validate:"omitempty,max=100"`
}

// RegisterRoutes registers the station routes. Writes are admin-gated.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/station", mw.Authenticate)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, mw.RequireAdmin)
	g.PUT("/:id", h.update, mw.RequireAdmin)
}

func (h *handler) create(c echo.Context) error {
	params := createStationPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	station, err := h.service.Create(c.Request().Context(), CreateStationOptions{
		Name: params.Name,
		Code: params.Code,
		City: params.City,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, station)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}
	station, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := updateStationPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Name != nil {
		station.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Code != nil {
		station.Code = *params.Code
		columns = append(columns, "code")
	}
	if params.City != nil {
		station.City = *params.City
		columns = append(columns, "city")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateStationOptions{Station: station, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) list(c echo.Context) error {
	stations, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stations)
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	station, err := h.service.Retrieve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, station)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Station")
	}
	return id, nil
}
