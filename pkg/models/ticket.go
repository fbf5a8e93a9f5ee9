package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:tk"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        int       `bun:",nullzero" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	TrainID       int       `bun:",nullzero" json:"train_id"`
	Train         *Train    `bun:"rel:belongs-to,join:train_id=id" json:"train,omitempty"`
	FromStationID int       `bun:",nullzero" json:"from_station_id"`
	FromStation   *Station  `bun:"rel:belongs-to,join:from_station_id=id" json:"from_station,omitempty"`
	ToStationID   int       `bun:",nullzero" json:"to_station_id"`
	ToStation     *Station  `bun:"rel:belongs-to,join:to_station_id=id" json:"to_station,omitempty"`
	Fare          float64   `json:"fare"`
	IssuedAt      time.Time `json:"issued_at"`
}
