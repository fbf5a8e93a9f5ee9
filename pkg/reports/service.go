package reports

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/models"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// MonthlyAmount is one month's aggregated value, keyed as YYYY-MM.
type MonthlyAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// MonthlyCount is one month's row count, keyed as YYYY-MM.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// IncomeReport aggregates order revenue and user income by month.
type IncomeReport struct {
	OrderTotals []MonthlyAmount `json:"order_totals"`
	UserIncome  []MonthlyAmount `json:"user_income"`
}

func (s *Service) Income(ctx context.Context) (*IncomeReport, error) {
	report := &IncomeReport{
		OrderTotals: []MonthlyAmount{},
		UserIncome:  []MonthlyAmount{},
	}
	err := s.db.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("strftime('%Y-%m', o.created_at) AS month").
		ColumnExpr("SUM(o.total) AS amount").
		Where("o.status = ?", models.OrderStatusConfirmed).
		GroupExpr("strftime('%Y-%m', o.created_at)").
		OrderExpr("month ASC").
		Scan(ctx, &report.OrderTotals)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = s.db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("strftime('%Y-%m', u.created_at) AS month").
		ColumnExpr("SUM(u.income) AS amount").
		Where("u.income > 0").
		GroupExpr("strftime('%Y-%m', u.created_at)").
		OrderExpr("month ASC").
		Scan(ctx, &report.UserIncome)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return report, nil
}

// SubscriberGrowth counts Premium users by signup month.
func (s *Service) SubscriberGrowth(ctx context.Context) ([]MonthlyCount, error) {
	growth := []MonthlyCount{}
	err := s.db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("strftime('%Y-%m', u.created_at) AS month").
		ColumnExpr("COUNT(*) AS count").
		Where("u.subscription_type = ?", models.SubscriptionPremium).
		GroupExpr("strftime('%Y-%m', u.created_at)").
		OrderExpr("month ASC").
		Scan(ctx, &growth)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return growth, nil
}
