package models

import (
	"database/sql/driver"
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

const (
	ShippingMethodFree    = "free"
	ShippingMethodNextDay = "next-day"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int              `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	UserID          int              `bun:",nullzero" json:"user_id"`
	User            *User            `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	BookTitle       string           `bun:",nullzero" json:"book_title"`
	Quantity        int              `json:"quantity"`
	Price           float64          `json:"price"`
	Total           float64          `json:"total"`
	Status          string           `bun:",nullzero" json:"status"`
	PaymentID       string           `json:"payment_id"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	ShippingMethod  string           `bun:",nullzero" json:"shipping_method"`
	PDFLink         string           `json:"pdf_link"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	CustomerName    string           `json:"customer_name"`
}

type ShippingAddress struct {
	City       string `json:"city"`
	Country    string `json:"country"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
}

func (a *ShippingAddress) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return jsonValue(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	return jsonScan(src, a)
}
