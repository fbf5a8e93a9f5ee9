package orders

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/uploads"
	"github.com/taleweave/taleweave/pkg/users"
)

const pdfField = "pdf"

type handler struct {
	service *Service
	uploads *uploads.Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := struct {
		CreateOrderPayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	opts := CreateOrderOptions{
		User:      user,
		BookTitle: params.BookTitle,
		Quantity:  params.Quantity,
		Price:     params.Price,
	}
	if params.ShippingAddress != "" {
		address := &models.ShippingAddress{}
		if err := json.Unmarshal([]byte(params.ShippingAddress), address); err != nil {
			return errcodes.ValidationError(`"shippingAddress" must be a valid JSON object.`)
		}
		opts.ShippingAddress = address
	}
	if fh, ok := params.FormFiles[pdfField]; ok {
		url, err := h.uploads.SavePDF(ctx, "books", fh)
		if err != nil {
			return err
		}
		opts.PDFLink = url
	}

	order, redirectURL, err := h.service.Create(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{
		Order: &OrderEnvelope{ID: order.ID, Total: order.Total},
		URL:   redirectURL,
	})
}

func (h *handler) list(c echo.Context) error {
	orders, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Order")
	}

	opts := RetrieveOrderOptions{ID: id}
	if !user.IsAdmin() {
		opts.UserID = &user.ID
	}
	order, err := h.service.Retrieve(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *handler) updateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Order")
	}
	order, err := h.service.Retrieve(ctx, RetrieveOrderOptions{ID: id})
	if err != nil {
		return err
	}

	params := UpdateOrderStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	order.Status = params.Status
	updated, err := h.service.Update(ctx, UpdateOrderOptions{Order: order, Columns: []string{"status"}})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
