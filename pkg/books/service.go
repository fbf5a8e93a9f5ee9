package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/ai"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

// Canned bot responses used when the generation service fails or when an
// answer passes the relevance check.
const (
	relevantBotResponse = "Great answer! Let's move on to the next question."
	fallbackBotResponse = "Thanks for sharing! Let's keep going."
	fallbackSubQuestion = "Could you tell me a bit more about that?"
	fallbackStory       = "We couldn't generate your story right now. Please try again later."
)

// Service handles books, their episodes, and the conversation flow that
// fills them.
type Service struct {
	db  *bun.DB
	gen ai.Generator
}

func NewService(db *bun.DB, gen ai.Generator) *Service {
	return &Service{db: db, gen: gen}
}

type CreateBookOptions struct {
	UserID     int
	Title      string
	CoverImage string
	Language   string
}

// Create creates a draft book and snapshots every published section into an
// empty episode, ordered by episode_index then id. Section edits after this
// point do not touch existing books.
func (s *Service) Create(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	sections, err := s.publishedSections(ctx)
	if err != nil {
		return nil, err
	}

	episodes := make(models.EpisodeList, 0, len(sections))
	for _, section := range sections {
		episodes = append(episodes, models.Episode{
			Title:         section.Name(opts.Language),
			Conversations: []models.Conversation{},
		})
	}

	now := time.Now()
	book := &models.Book{
		UserID:     opts.UserID,
		Title:      opts.Title,
		CoverImage: opts.CoverImage,
		Status:     models.BookStatusDraft,
		Episodes:   episodes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// RetrieveBookOptions scopes a lookup. UserID makes the lookup owner-scoped;
// a book owned by someone else reads as not found.
type RetrieveBookOptions struct {
	ID     int
	UserID *int
}

func (s *Service) Retrieve(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}
	q := s.db.NewSelect().Model(book).Where("b.id = ?", opts.ID)
	if opts.UserID != nil {
		q = q.Where("b.user_id = ?", *opts.UserID)
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Book")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return book, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]*models.Book, error) {
	books := []*models.Book{}
	err := s.db.NewSelect().
		Model(&books).
		Where("b.user_id = ?", userID).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

// UpdateBookOptions updates only the named Columns on the book.
type UpdateBookOptions struct {
	Book    *models.Book
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateBookOptions) (*models.Book, error) {
	opts.Book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Book, nil
}

func (s *Service) Delete(ctx context.Context, book *models.Book) error {
	_, err := s.db.NewDelete().Model(book).WherePK().Exec(ctx)
	return errors.WithStack(err)
}

// Finalize transitions a draft book to final. Finalized books never go back
// to draft.
func (s *Service) Finalize(ctx context.Context, book *models.Book) (*models.Book, error) {
	if book.Status == models.BookStatusFinal {
		return nil, errcodes.BadRequest("This book has already been finalized.")
	}
	now := time.Now()
	book.Status = models.BookStatusFinal
	book.FinalizedAt = &now
	return s.Update(ctx, UpdateBookOptions{Book: book, Columns: []string{"status", "finalized_at"}})
}

// SaveEpisodes persists the whole episodes document.
func (s *Service) SaveEpisodes(ctx context.Context, book *models.Book) (*models.Book, error) {
	return s.Update(ctx, UpdateBookOptions{Book: book, Columns: []string{"episodes"}})
}

// DeleteEpisode removes the episode at index and persists the shortened
// list.
func (s *Service) DeleteEpisode(ctx context.Context, book *models.Book, index int) (*models.Book, error) {
	if book.Episode(index) == nil {
		return nil, errcodes.NotFound("Episode")
	}
	book.Episodes = append(book.Episodes[:index], book.Episodes[index+1:]...)
	return s.SaveEpisodes(ctx, book)
}

// StartConversation returns the first question of the section backing the
// episode, in the given language.
func (s *Service) StartConversation(ctx context.Context, book *models.Book, index int, lang string) (string, error) {
	if book.Episode(index) == nil {
		return "", errcodes.NotFound("Episode")
	}
	section, err := s.sectionForEpisode(ctx, index)
	if err != nil {
		return "", err
	}
	questions, err := s.sectionQuestions(ctx, section.ID)
	if err != nil {
		return "", err
	}
	if len(questions) == 0 {
		return "", errcodes.NotFound("Question")
	}
	return questions[0].Text(lang), nil
}

// Answer records one question/answer turn. The answer is checked for
// relevance; an off-topic answer gets a follow-up sub-question that does not
// advance the episode. Generation failures degrade to canned responses, the
// turn is recorded either way.
func (s *Service) Answer(ctx context.Context, book *models.Book, index int, question, answer string) (*models.Conversation, error) {
	episode := book.Episode(index)
	if episode == nil {
		return nil, errcodes.NotFound("Episode")
	}

	turn := models.Conversation{
		Question:   question,
		UserAnswer: answer,
	}
	relevant, err := s.gen.CheckRelevance(ctx, question, answer)
	switch {
	case err != nil:
		turn.BotResponse = fallbackBotResponse
	case relevant:
		turn.BotResponse = relevantBotResponse
	default:
		sub, err := s.gen.GenerateSubQuestion(ctx, question, answer)
		if err != nil {
			sub = fallbackSubQuestion
		}
		turn.BotResponse = sub
		turn.IsSubQuestion = true
	}

	episode.Conversations = append(episode.Conversations, turn)
	_, err = s.SaveEpisodes(ctx, book)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

// NextQuestion returns the next unanswered section question for the episode.
// Sub-question turns do not advance the index.
func (s *Service) NextQuestion(ctx context.Context, book *models.Book, index int, lang string) (string, error) {
	episode := book.Episode(index)
	if episode == nil {
		return "", errcodes.NotFound("Episode")
	}
	section, err := s.sectionForEpisode(ctx, index)
	if err != nil {
		return "", err
	}
	questions, err := s.sectionQuestions(ctx, section.ID)
	if err != nil {
		return "", err
	}
	next := episode.AnsweredQuestionCount()
	if next >= len(questions) {
		return "", errcodes.NotFound("Question")
	}
	return questions[next].Text(lang), nil
}

// GenerateStory sends the episode's answered questions to the story
// generator and appends the result as a terminal turn. A generator failure
// still appends a turn so the attempt is visible in the history.
func (s *Service) GenerateStory(ctx context.Context, book *models.Book, index int) (*models.Conversation, error) {
	episode := book.Episode(index)
	if episode == nil {
		return nil, errcodes.NotFound("Episode")
	}

	pairs := []ai.QAPair{}
	for _, conv := range episode.Conversations {
		if conv.StoryGenerated || conv.UserAnswer == "" {
			continue
		}
		pairs = append(pairs, ai.QAPair{Question: conv.Question, Answer: conv.UserAnswer})
	}
	if len(pairs) == 0 {
		return nil, errcodes.BadRequest("This episode has no answered questions yet.")
	}

	story, err := s.gen.GenerateStory(ctx, pairs)
	if err != nil {
		story = fallbackStory
	}
	turn := models.Conversation{
		Question:       "Generated Story",
		BotResponse:    story,
		StoryGenerated: true,
	}
	episode.Conversations = append(episode.Conversations, turn)
	_, err = s.SaveEpisodes(ctx, book)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func (s *Service) publishedSections(ctx context.Context) ([]*models.Section, error) {
	sections := []*models.Section{}
	err := s.db.NewSelect().
		Model(&sections).
		Where("s.published = ?", true).
		OrderExpr("s.episode_index IS NULL, s.episode_index ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return sections, nil
}

// sectionForEpisode maps an episode index back to the section that seeded
// it, using the same ordering Create used.
func (s *Service) sectionForEpisode(ctx context.Context, index int) (*models.Section, error) {
	sections, err := s.publishedSections(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sections) {
		return nil, errcodes.NotFound("Section")
	}
	return sections[index], nil
}

func (s *Service) sectionQuestions(ctx context.Context, sectionID int) ([]*models.Question, error) {
	questions := []*models.Question{}
	err := s.db.NewSelect().
		Model(&questions).
		Where("q.section_id = ?", sectionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return questions, nil
}
