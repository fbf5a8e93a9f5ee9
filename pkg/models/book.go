package models

import (
	"database/sql/driver"
	"time"

	"github.com/uptrace/bun"
)

const (
	BookStatusDraft = "draft"
	BookStatusFinal = "final"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int         `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	UserID      int         `bun:",nullzero" json:"user_id"`
	User        *User       `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Title       string      `bun:",nullzero" json:"title"`
	CoverImage  string      `json:"cover_image"`
	Status      string      `bun:",nullzero" json:"status"`
	Percentage  int         `json:"percentage"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty"`
	Episodes    EpisodeList `json:"episodes"`
}

// Episode is a chapter-like unit owned by a Book, built from a sequence of
// conversation turns. Episodes live inside the book row as a JSON list so a
// book is always read and written as a whole document.
type Episode struct {
	Title         string         `json:"title"`
	CoverImage    string         `json:"cover_image"`
	Percentage    int            `json:"percentage"`
	Conversations []Conversation `json:"conversations"`
}

// Conversation is one question/answer turn inside an Episode. UserAnswer may
// be empty only for generated-story turns.
type Conversation struct {
	Question       string `json:"question"`
	UserAnswer     string `json:"user_answer"`
	BotResponse    string `json:"bot_response"`
	IsSubQuestion  bool   `json:"is_sub_question"`
	StoryGenerated bool   `json:"story_generated"`
}

type EpisodeList []Episode

func (l EpisodeList) Value() (driver.Value, error) {
	if l == nil {
		l = EpisodeList{}
	}
	return jsonValue(l)
}

func (l *EpisodeList) Scan(src interface{}) error {
	return jsonScan(src, l)
}

// Episode returns a pointer to the episode at index, or nil when the index is
// out of range.
func (b *Book) Episode(index int) *Episode {
	if index < 0 || index >= len(b.Episodes) {
		return nil
	}
	return &b.Episodes[index]
}

// AnsweredQuestionCount counts the non-sub-question turns recorded so far.
// It doubles as the index of the next unanswered section question. Generated
// story turns are not answers and do not count.
func (e *Episode) AnsweredQuestionCount() int {
	count := 0
	for _, conv := range e.Conversations {
		if !conv.IsSubQuestion && !conv.StoryGenerated {
			count++
		}
	}
	return count
}
