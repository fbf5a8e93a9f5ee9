package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/mailer"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/payments"
)

// premiumIncome is credited to a user's income field when their Premium
// subscription is confirmed.
const premiumIncome = 20

// Service handles the subscription plan catalog and plan upgrades.
type Service struct {
	db        *bun.DB
	payments  payments.Provider
	mailer    mailer.Mailer
	clientURL string
}

func NewService(db *bun.DB, provider payments.Provider, m mailer.Mailer, clientURL string) *Service {
	return &Service{db: db, payments: provider, mailer: m, clientURL: clientURL}
}

type CreatePlanOptions struct {
	Title       string
	Description string
	Price       float64
	Discount    float64
	Benefits    []string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
}

func (s *Service) Create(ctx context.Context, opts CreatePlanOptions) (*models.SubscriptionPlan, error) {
	status := opts.Status
	if status == "" {
		status = models.PlanStatusActive
	}
	now := time.Now()
	plan := &models.SubscriptionPlan{
		Title:       opts.Title,
		Description: opts.Description,
		Price:       opts.Price,
		Discount:    opts.Discount,
		Benefits:    opts.Benefits,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	plan.RecomputeDiscountedPrice()
	_, err := s.db.NewInsert().Model(plan).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return plan, nil
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{}
	err := s.db.NewSelect().Model(plan).Where("sp.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Subscription plan")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	plans := []*models.SubscriptionPlan{}
	err := s.db.NewSelect().Model(&plans).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return plans, nil
}

// UpdatePlanOptions updates the named Columns. The discounted price is
// always recomputed and written with the update.
type UpdatePlanOptions struct {
	Plan    *models.SubscriptionPlan
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdatePlanOptions) (*models.SubscriptionPlan, error) {
	if len(opts.Columns) == 0 {
		return opts.Plan, nil
	}
	opts.Plan.RecomputeDiscountedPrice()
	opts.Plan.UpdatedAt = time.Now()
	columns := append(opts.Columns, "discounted_price", "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Plan).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Plan, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.SubscriptionPlan)(nil)).
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
		return errcodes.NotFound("Subscription plan")
	}
	return nil
}

// CreateCheckout opens a checkout session for a plan upgrade. The user id
// and subscription type ride along as metadata so the webhook can apply the
// upgrade once payment completes.
func (s *Service) CreateCheckout(ctx context.Context, user *models.User, planID int) (string, error) {
	plan, err := s.Retrieve(ctx, planID)
	if err != nil {
		return "", err
	}
	if plan.Status != models.PlanStatusActive {
		return "", errcodes.BadRequest("This subscription plan is not available.")
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Items: []payments.CheckoutItem{{
			Name:       plan.Title,
			UnitAmount: int64(math.Round(plan.DiscountedPrice * 100)),
			Quantity:   1,
		}},
		SuccessURL:    s.clientURL + "/subscription-success",
		CancelURL:     s.clientURL + "/subscription-cancelled",
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"userId":           fmt.Sprint(user.ID),
			"subscriptionType": plan.Title,
		},
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// Apply overwrites a user's subscription after a completed checkout. It is
// idempotent: replaying the same event writes the same values again. A
// confirmation email goes out on every apply; a mail failure does not roll
// back the subscription.
func (s *Service) Apply(ctx context.Context, userID int, subscriptionType string) error {
	user := &models.User{}
	err := s.db.NewSelect().Model(user).Where("u.id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return errcodes.NotFound("User")
	} else if err != nil {
		return errors.WithStack(err)
	}

	income := float64(0)
	if subscriptionType == models.SubscriptionPremium {
		income = premiumIncome
	}
	_, err = s.db.NewUpdate().
		Model(user).
		Set("subscription_type = ?", subscriptionType).
		Set("income = ?", income).
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	err = s.mailer.SendSubscriptionConfirmation(user.Email, subscriptionType)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("subscription confirmation email failed")
	}
	return nil
}
