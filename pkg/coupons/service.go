package coupons

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

type CreateCouponOptions struct {
	Name      string
	Code      string
	Discount  float64
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
}

func (s *Service) Create(ctx context.Context, opts CreateCouponOptions) (*models.Coupon, error) {
	status := opts.Status
	if status == "" {
		status = models.CouponStatusActive
	}
	now := time.Now()
	coupon := &models.Coupon{
		Name:      opts.Name,
		Code:      opts.Code,
		Discount:  opts.Discount,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	coupon.NormalizeCode()

	exists, err := s.db.NewSelect().
		Model((*models.Coupon)(nil)).
		Where("code = ? COLLATE NOCASE", coupon.Code).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Coupon code already exists")
	}

	_, err = s.db.NewInsert().Model(coupon).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return coupon, nil
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	err := s.db.NewSelect().Model(coupon).Where("cp.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Coupon")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return coupon, nil
}

type ListCouponsOptions struct {
	Status *string
}

func (s *Service) List(ctx context.Context, opts ListCouponsOptions) ([]*models.Coupon, error) {
	coupons := []*models.Coupon{}
	q := s.db.NewSelect().Model(&coupons).Order("created_at DESC")
	if opts.Status != nil {
		q = q.Where("cp.status = ?", *opts.Status)
	}
	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return coupons, nil
}

type UpdateCouponOptions struct {
	Coupon  *models.Coupon
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateCouponOptions) (*models.Coupon, error) {
	if len(opts.Columns) == 0 {
		return opts.Coupon, nil
	}
	opts.Coupon.NormalizeCode()
	opts.Coupon.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Coupon).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Coupon, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.Coupon)(nil)).
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
		return errcodes.NotFound("Coupon")
	}
	return nil
}

// Apply looks up an active coupon inside its validity window and returns the
// discounted total. Expired, inactive, or unknown codes are rejected.
func (s *Service) Apply(ctx context.Context, code string, totalPrice float64) (*models.Coupon, float64, error) {
	coupon := &models.Coupon{Code: code}
	coupon.NormalizeCode()

	err := s.db.NewSelect().
		Model(coupon).
		Where("cp.code = ? COLLATE NOCASE", coupon.Code).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, errcodes.BadRequest("This coupon code is not valid.")
	} else if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if !coupon.Redeemable(time.Now()) {
		return nil, 0, errcodes.BadRequest("This coupon code is not valid.")
	}
	return coupon, coupon.Apply(totalPrice), nil
}
