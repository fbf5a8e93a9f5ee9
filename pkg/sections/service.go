package sections

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

type CreateSectionOptions struct {
	NameEN       string
	NameES       string
	Published    bool
	EpisodeIndex *int
}

func (s *Service) Create(ctx context.Context, opts CreateSectionOptions) (*models.Section, error) {
	now := time.Now()
	section := &models.Section{
		NameEN:       opts.NameEN,
		NameES:       opts.NameES,
		Published:    opts.Published,
		EpisodeIndex: opts.EpisodeIndex,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.NewInsert().Model(section).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return section, nil
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.Section, error) {
	section := &models.Section{}
	err := s.db.NewSelect().Model(section).Where("s.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Section")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return section, nil
}

// List returns all sections with their question counts recomputed from the
// questions table, so drift in the stored counter never reaches clients.
func (s *Service) List(ctx context.Context) ([]*models.Section, error) {
	sections := []*models.Section{}
	err := s.db.NewSelect().
		Model(&sections).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM questions q WHERE q.section_id = s.id) AS number_of_questions").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return sections, nil
}

type UpdateSectionOptions struct {
	Section *models.Section
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateSectionOptions) (*models.Section, error) {
	if len(opts.Columns) == 0 {
		return opts.Section, nil
	}
	opts.Section.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Section).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Section, nil
}

// Delete removes a section and cascades to its questions.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Question)(nil)).
			Where("section_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		res, err := tx.NewDelete().
			Model((*models.Section)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Section")
		}
		return nil
	})
}
