package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Policy is a singleton row. Updates upsert; empty fields keep the previous
// values.
type Policy struct {
	bun.BaseModel `bun:"table:policies,alias:pl"`

	ID                 int       `bun:",pk,nullzero" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	TermsAndConditions string    `json:"terms_and_conditions"`
	PrivacyPolicy      string    `json:"privacy_policy"`
}
