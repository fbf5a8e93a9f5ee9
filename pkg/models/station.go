package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Station struct {
	bun.BaseModel `bun:"table:stations,alias:st"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`
	Code      string    `bun:",nullzero" json:"code"`
	City      string    `json:"city"`
}
