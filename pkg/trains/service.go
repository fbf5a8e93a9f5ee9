package trains

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

type CreateTrainOptions struct {
	Name  string
	Stops models.TrainStops
}

func (s *Service) Create(ctx context.Context, opts CreateTrainOptions) (*models.Train, error) {
	err := s.verifyStops(ctx, opts.Stops)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	train := &models.Train{
		Name:      opts.Name,
		Stops:     opts.Stops,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.NewInsert().Model(train).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return train, nil
}

// Retrieve returns a train with each stop's station resolved.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Train, error) {
	train := &models.Train{}
	err := s.db.NewSelect().Model(train).Where("tr.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Train")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	err = s.resolveStops(ctx, train)
	if err != nil {
		return nil, err
	}
	return train, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Train, error) {
	trains := []*models.Train{}
	err := s.db.NewSelect().Model(&trains).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, train := range trains {
		err = s.resolveStops(ctx, train)
		if err != nil {
			return nil, err
		}
	}
	return trains, nil
}

type UpdateTrainOptions struct {
	Train   *models.Train
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateTrainOptions) (*models.Train, error) {
	if len(opts.Columns) == 0 {
		return opts.Train, nil
	}
	err := s.verifyStops(ctx, opts.Train.Stops)
	if err != nil {
		return nil, err
	}
	opts.Train.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err = s.db.NewUpdate().
		Model(opts.Train).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Train, nil
}

// verifyStops rejects stops that reference stations that don't exist.
func (s *Service) verifyStops(ctx context.Context, stops models.TrainStops) error {
	for _, stop := range stops {
		exists, err := s.db.NewSelect().
			Model((*models.Station)(nil)).
			Where("id = ?", stop.StationID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError("One or more stops reference an unknown station")
		}
	}
	return nil
}

func (s *Service) resolveStops(ctx context.Context, train *models.Train) error {
	ids := train.StationIDs()
	if len(ids) == 0 {
		return nil
	}
	stations := []*models.Station{}
	err := s.db.NewSelect().Model(&stations).Where("st.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	byID := make(map[int]*models.Station, len(stations))
	for _, station := range stations {
		byID[station.ID] = station
	}
	for i := range train.Stops {
		train.Stops[i].Station = byID[train.Stops[i].StationID]
	}
	return nil
}
