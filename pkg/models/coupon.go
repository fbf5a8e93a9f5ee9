package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	CouponStatusActive   = "active"
	CouponStatusInactive = "inactive"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons,alias:cp"`

	ID        int        `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Name      string     `bun:",nullzero" json:"name"`
	Code      string     `bun:",nullzero" json:"code"`
	Discount  float64    `json:"discount"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Status    string     `bun:",nullzero" json:"status"`
}

// NormalizeCode uppercases the coupon code so lookups are case-insensitive.
func (c *Coupon) NormalizeCode() {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
}

// Redeemable reports whether the coupon is active and now falls inside its
// validity window. A missing bound is treated as open-ended.
func (c *Coupon) Redeemable(now time.Time) bool {
	if c.Status != CouponStatusActive {
		return false
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}

// Apply returns the total after applying the coupon's percentage discount.
func (c *Coupon) Apply(total float64) float64 {
	return total - (total*c.Discount)/100
}
