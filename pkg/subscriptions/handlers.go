package subscriptions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreatePlanPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	opts := CreatePlanOptions{
		Title:       params.Title,
		Description: params.Description,
		Price:       params.Price,
		Discount:    params.Discount,
		Benefits:    params.Benefits,
		Status:      params.Status,
	}
	var err error
	opts.StartDate, err = parseDate(params.StartDate, "start_date")
	if err != nil {
		return err
	}
	opts.EndDate, err = parseDate(params.EndDate, "end_date")
	if err != nil {
		return err
	}

	plan, err := h.service.Create(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}
	plan, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := UpdatePlanPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Title != nil {
		plan.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Description != nil {
		plan.Description = *params.Description
		columns = append(columns, "description")
	}
	if params.Price != nil {
		plan.Price = *params.Price
		columns = append(columns, "price")
	}
	if params.Discount != nil {
		plan.Discount = *params.Discount
		columns = append(columns, "discount")
	}
	if params.Benefits != nil {
		plan.Benefits = *params.Benefits
		columns = append(columns, "benefits")
	}
	if params.StartDate != nil {
		plan.StartDate, err = parseDate(*params.StartDate, "start_date")
		if err != nil {
			return err
		}
		columns = append(columns, "start_date")
	}
	if params.EndDate != nil {
		plan.EndDate, err = parseDate(*params.EndDate, "end_date")
		if err != nil {
			return err
		}
		columns = append(columns, "end_date")
	}
	if params.Status != nil {
		plan.Status = *params.Status
		columns = append(columns, "status")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdatePlanOptions{Plan: plan, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) list(c echo.Context) error {
	plans, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	plan, err := h.service.Retrieve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *handler) createCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := users.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	params := CreateCheckoutPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	url, err := h.service.CreateCheckout(ctx, user, params.PlanID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CheckoutResponse{URL: url})
}

func parseDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errcodes.ValidationError(`"` + field + `" must be a valid date.`)
	}
	return &t, nil
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Subscription plan")
	}
	return id, nil
}
