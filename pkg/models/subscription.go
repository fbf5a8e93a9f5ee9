package models

import (
	"database/sql/driver"
	"time"

	"github.com/uptrace/bun"
)

const (
	PlanStatusActive   = "active"
	PlanStatusInactive = "inactive"
)

// SubscriptionPlan is a catalog row describing a purchasable tier, not a
// user's subscription state (that lives on the User).
type SubscriptionPlan struct {
	bun.BaseModel `bun:"table:subscription_plans,alias:sp"`

	ID              int        `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Title           string     `bun:",nullzero" json:"title"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	Discount        float64    `json:"discount"`
	DiscountedPrice float64    `json:"discounted_price"`
	Benefits        StringList `json:"benefits"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Status          string     `bun:",nullzero" json:"status"`
}

// RecomputeDiscountedPrice derives the discounted price from the current
// price and discount. It runs on every create and update.
func (p *SubscriptionPlan) RecomputeDiscountedPrice() {
	if p.Discount > 0 {
		p.DiscountedPrice = p.Price - (p.Price*p.Discount)/100
	} else {
		p.DiscountedPrice = p.Price
	}
}

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonValue(l)
}

func (l *StringList) Scan(src interface{}) error {
	return jsonScan(src, l)
}
