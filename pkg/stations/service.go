package stations

import (
	"context"
	"database/sql"
	"strings"
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

type CreateStationOptions struct {
	Name string
	Code string
	City string
}

func (s *Service) Create(ctx context.Context, opts CreateStationOptions) (*models.Station, error) {
	now := time.Now()
	station := &models.Station{
		Name:      opts.Name,
		Code:      strings.ToUpper(strings.TrimSpace(opts.Code)),
		City:      opts.City,
		CreatedAt: now,
		UpdatedAt: now,
	}

	exists, err := s.db.NewSelect().
		Model((*models.Station)(nil)).
		Where("code = ? COLLATE NOCASE", station.Code).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Station code already exists")
	}

	_, err = s.db.NewInsert().Model(station).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return station, nil
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.Station, error) {
	station := &models.Station{}
	err := s.db.NewSelect().Model(station).Where("st.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Station")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return station, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Station, error) {
	stations := []*models.Station{}
	err := s.db.NewSelect().Model(&stations).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return stations, nil
}

type UpdateStationOptions struct {
	Station *models.Station
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateStationOptions) (*models.Station, error) {
	if len(opts.Columns) == 0 {
		return opts.Station, nil
	}
	opts.Station.Code = strings.ToUpper(strings.TrimSpace(opts.Station.Code))
	opts.Station.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Station).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Station, nil
}
