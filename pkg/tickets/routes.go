package tickets

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

type addFundsPayload struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type purchasePayload struct {
	TrainID       int     `json:"train_id" validate:"required,gt=0"`
	FromStationID int     `json:"from_station_id" validate:"required,gt=0"`
	ToStationID   int     `json:"to_station_id" validate:"required,gt=0,nefield=FromStationID"`
	Fare          float64 `json:"fare" validate:"required,gt=0"`
}

// RegisterRoutes registers the wallet and ticket routes. Everything is
// scoped to the authenticated caller.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	wallet := e.Group("/api/wallet", mw.Authenticate)
	wallet.POST("/add-funds", h.addFunds)
	wallet.GET("", h.wallet)

	ticket := e.Group("/api/ticket", mw.Authenticate)
	ticket.POST("/purchase", h.purchase)
	ticket.GET("", h.list)
}

func (h *handler) addFunds(c echo.Context) error {
	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	params := addFundsPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	wallet, err := h.service.AddFunds(c.Request().Context(), user.ID, params.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}

func (h *handler) wallet(c echo.Context) error {
	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	wallet, err := h.service.Wallet(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}

func (h *handler) purchase(c echo.Context) error {
	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	params := purchasePayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	ticket, err := h.service.Purchase(c.Request().Context(), PurchaseOptions{
		UserID:        user.ID,
		TrainID:       params.TrainID,
		FromStationID: params.FromStationID,
		ToStationID:   params.ToStationID,
		Fare:          params.Fare,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ticket)
}

func (h *handler) list(c echo.Context) error {
	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	tickets, err := h.service.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tickets)
}
