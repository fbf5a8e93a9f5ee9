// Package webhook receives payment events. Signature verification happens
// before any state change; a mis-signed payload is rejected with 400.
package webhook

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	baselogger "github.com/robinjoseph08/golib/logger"

	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/orders"
	"github.com/taleweave/taleweave/pkg/payments"
	"github.com/taleweave/taleweave/pkg/subscriptions"
)

type handler struct {
	payments      payments.Provider
	orders        *orders.Service
	subscriptions *subscriptions.Service
}

// RegisterRoutes registers the payment webhook endpoint.
func RegisterRoutes(e *echo.Echo, provider payments.Provider, orderService *orders.Service, subscriptionService *subscriptions.Service) {
	h := &handler{
		payments:      provider,
		orders:        orderService,
		subscriptions: subscriptionService,
	}
	e.POST("/api/webhook", h.handle)
}

func (h *handler) handle(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromEchoContext(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errors.WithStack(err)
	}
	event, err := h.payments.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return errcodes.WebhookSignatureError()
	}

	if event.Type != payments.EventCheckoutSessionCompleted {
		// Unhandled event types are acknowledged so they are not redelivered.
		return c.NoContent(http.StatusOK)
	}

	session := event.Session
	switch {
	case session.Metadata["orderId"] != "":
		orderID, err := strconv.Atoi(session.Metadata["orderId"])
		if err != nil {
			log.Data(baselogger.Data{"order_id": session.Metadata["orderId"]}).Warn("webhook carried a non-numeric order id")
			return c.NoContent(http.StatusOK)
		}
		if err := h.orders.Confirm(ctx, orderID, session); err != nil {
			return err
		}
	case session.Metadata["userId"] != "" && session.Metadata["subscriptionType"] != "":
		userID, err := strconv.Atoi(session.Metadata["userId"])
		if err != nil {
			log.Data(baselogger.Data{"user_id": session.Metadata["userId"]}).Warn("webhook carried a non-numeric user id")
			return c.NoContent(http.StatusOK)
		}
		if err := h.subscriptions.Apply(ctx, userID, session.Metadata["subscriptionType"]); err != nil {
			return err
		}
	}

	return c.NoContent(http.StatusOK)
}
