package coupons

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
)

type handler struct {
	service *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCouponPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	opts := CreateCouponOptions{
		Name:     params.Name,
		Code:     params.Code,
		Discount: params.Discount,
		Status:   params.Status,
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

	coupon, err := h.service.Create(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return err
	}
	coupon, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	params := UpdateCouponPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Name != nil {
		coupon.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Code != nil {
		coupon.Code = *params.Code
		columns = append(columns, "code")
	}
	if params.Discount != nil {
		coupon.Discount = *params.Discount
		columns = append(columns, "discount")
	}
	if params.StartDate != nil {
		coupon.StartDate, err = parseDate(*params.StartDate, "start_date")
		if err != nil {
			return err
		}
		columns = append(columns, "start_date")
	}
	if params.EndDate != nil {
		coupon.EndDate, err = parseDate(*params.EndDate, "end_date")
		if err != nil {
			return err
		}
		columns = append(columns, "end_date")
	}
	if params.Status != nil {
		coupon.Status = *params.Status
		columns = append(columns, "status")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateCouponOptions{Coupon: coupon, Columns: columns})
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
	params := ListCouponsPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	coupons, err := h.service.List(c.Request().Context(), ListCouponsOptions{Status: params.Status})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, coupons)
}

func (h *handler) apply(c echo.Context) error {
	ctx := c.Request().Context()

	params := ApplyCouponPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	coupon, finalPrice, err := h.service.Apply(ctx, params.Code, params.TotalPrice)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ApplyCouponResponse{
		Code:       coupon.Code,
		Discount:   coupon.Discount,
		FinalPrice: finalPrice,
	})
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
		return 0, errcodes.NotFound("Coupon")
	}
	return id, nil
}
