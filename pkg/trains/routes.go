package trains

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

type stopPayload struct {
	StationID     int    `json:"station_id" validate:"required,gt=0"`
	ArrivalTime   string `json:"arrival_time" validate:"max=20"`
	DepartureTime string `json:"departure_time" validate:"max=20"`
}

type createTrainPayload struct {
	Name  string        `json:"name" validate:"required,max=100"`
	Stops []stopPayload `json:"stops" validate:"required,min=2,dive"`
}

type updateTrainPayload struct {
	Name  *string        `json:"name" validate:"omitempty,max=100"`
	Stops *[]stopPayload `json:"stops" validate:"omitempty,min=2,dive"`
}

// RegisterRoutes registers the train routes. Writes are admin-gated.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/train", mw.Authenticate)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, mw.RequireAdmin)
	g.PUT("/:id", h.update, mw.RequireAdmin)
}

func (h *handler) create(c echo.Context) error {
	params := createTrainPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	train, err := h.service.Create(c.Request().Context(), CreateTrainOptions{
		Name:  params.Name,
		Stops: toStops(params.Stops),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, train)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}
	train, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := updateTrainPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Name != nil {
		train.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Stops != nil {
		train.Stops = toStops(*params.Stops)
		columns = append(columns, "stops")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateTrainOptions{Train: train, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) list(c echo.Context) error {
	trains, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trains)
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	train, err := h.service.Retrieve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, train)
}

func toStops(payload []stopPayload) models.TrainStops {
	stops := make(models.TrainStops, 0, len(payload))
	for _, stop := range payload {
		stops = append(stops, models.TrainStop{
			StationID:     stop.StationID,
			ArrivalTime:   stop.ArrivalTime,
			DepartureTime: stop.DepartureTime,
		})
	}
	return stops
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Train")
	}
	return id, nil
}
