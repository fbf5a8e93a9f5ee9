package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Section groups the pre-authored questions that seed one book episode.
// NumberOfQuestions is kept in sync by the section/question handlers, not by
// a database constraint.
type Section struct {
	bun.BaseModel `bun:"table:sections,alias:s"`

	ID                int       `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	NameEN            string    `bun:",nullzero" json:"name_en"`
	NameES            string    `json:"name_es"`
	NumberOfQuestions int       `json:"number_of_questions"`
	Published         bool      `json:"published"`
	EpisodeIndex      *int      `json:"episode_index,omitempty"`
}

// Name returns the section name in the given language, falling back to
// English.
func (s *Section) Name(lang string) string {
	if lang == "es" && s.NameES != "" {
		return s.NameES
	}
	return s.NameEN
}
