package questions

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type QuestionText struct {
	TextEN string
	TextES string
}

// CreateBatch adds questions to a section and bumps the section's stored
// question count by the number added, in one transaction.
func (s *Service) CreateBatch(ctx context.Context, sectionID int, texts []QuestionText) ([]*models.Question, error) {
	questions := make([]*models.Question, 0, len(texts))
	now := time.Now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Section)(nil)).
			Where("id = ?", sectionID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Section")
		}

		for _, text := range texts {
			question := &models.Question{
				SectionID: sectionID,
				TextEN:    text.TextEN,
				TextES:    text.TextES,
				CreatedAt: now,
				UpdatedAt: now,
			}
			_, err = tx.NewInsert().Model(question).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			questions = append(questions, question)
		}

		_, err = tx.NewUpdate().
			Model((*models.Section)(nil)).
			Set("number_of_questions = number_of_questions + ?", len(texts)).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("id = ?", sectionID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.Question, error) {
	question := &models.Question{}
	err := s.db.NewSelect().Model(question).Where("q.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Question")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return question, nil
}

func (s *Service) ListBySection(ctx context.Context, sectionID int) ([]*models.Question, error) {
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

type UpdateQuestionOptions struct {
	Question *models.Question
	Columns  []string
}

func (s *Service) Update(ctx context.Context, opts UpdateQuestionOptions) (*models.Question, error) {
	if len(opts.Columns) == 0 {
		return opts.Question, nil
	}
	opts.Question.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Question).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Question, nil
}

// Delete removes a question and decrements its section's stored count.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		question := &models.Question{}
		err := tx.NewSelect().Model(question).Where("q.id = ?", id).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Question")
		} else if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().Model(question).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Section)(nil)).
			Set("number_of_questions = MAX(number_of_questions - 1, 0)").
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("id = ?", question.SectionID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
