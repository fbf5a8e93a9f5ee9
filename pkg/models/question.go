package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SectionID int       `bun:",nullzero" json:"section_id"`
	Section   *Section  `bun:"rel:belongs-to,join:section_id=id" json:"section,omitempty"`
	TextEN    string    `bun:",nullzero" json:"text_en"`
	TextES    string    `json:"text_es"`
}

// Text returns the question text in the given language, falling back to
// English.
func (q *Question) Text(lang string) string {
	if lang == "es" && q.TextES != "" {
		return q.TextES
	}
	return q.TextEN
}
