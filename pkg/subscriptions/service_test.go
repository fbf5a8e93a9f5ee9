package subscriptions

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/migrations"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/payments"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// fakeProvider records the params of the last checkout session it created.
type fakeProvider struct {
	params payments.CheckoutParams
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error) {
	p.params = params
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (p *fakeProvider) VerifyWebhook(_ []byte, _ string) (*payments.Event, error) {
	return nil, errcodes.WebhookSignatureError()
}

type fakeMailer struct {
	confirmations []string
	sendErr       error
}

func (m *fakeMailer) SendPasswordReset(_, _ string) error  { return nil }
func (m *fakeMailer) SendAdminResetCode(_, _ string) error { return nil }
func (m *fakeMailer) SendSubscriptionConfirmation(_, plan string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.confirmations = append(m.confirmations, plan)
	return nil
}

func newTestService(t *testing.T) (*Service, *bun.DB, *fakeProvider, *fakeMailer) {
	t.Helper()

	db := newTestDB(t)
	provider := &fakeProvider{}
	m := &fakeMailer{}
	return NewService(db, provider, m, "http://client.test"), db, provider, m
}

func seedUser(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	user := &models.User{
		Firstname:         "Test",
		Email:             "test@example.com",
		PasswordHash:      "not-a-real-hash",
		Role:              models.RoleUser,
		PreferredLanguage: "en",
		SubscriptionType:  models.SubscriptionFree,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func TestServiceCreateComputesDiscountedPrice(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	plan, err := svc.Create(ctx, CreatePlanOptions{Title: "Premium", Price: 100, Discount: 25})
	require.NoError(t, err)
	assert.Equal(t, float64(75), plan.DiscountedPrice)
	assert.Equal(t, models.PlanStatusActive, plan.Status)

	noDiscount, err := svc.Create(ctx, CreatePlanOptions{Title: "Basic", Price: 50})
	require.NoError(t, err)
	assert.Equal(t, float64(50), noDiscount.DiscountedPrice)
}

func TestServiceUpdateRecomputesDiscountedPrice(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	plan, err := svc.Create(ctx, CreatePlanOptions{Title: "Premium", Price: 100, Discount: 25})
	require.NoError(t, err)

	plan.Discount = 50
	updated, err := svc.Update(ctx, UpdatePlanOptions{Plan: plan, Columns: []string{"discount"}})
	require.NoError(t, err)
	assert.Equal(t, float64(50), updated.DiscountedPrice)

	stored, err := svc.Retrieve(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), stored.DiscountedPrice)
}

func TestServiceCreateCheckout(t *testing.T) {
	t.Parallel()

	svc, db, provider, _ := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, db)

	plan, err := svc.Create(ctx, CreatePlanOptions{Title: "Premium", Price: 100, Discount: 25})
	require.NoError(t, err)

	url, err := svc.CreateCheckout(ctx, user, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_test", url)

	require.Len(t, provider.params.Items, 1)
	assert.Equal(t, int64(7500), provider.params.Items[0].UnitAmount)
	assert.Equal(t, "Premium", provider.params.Metadata["subscriptionType"])
	assert.NotEmpty(t, provider.params.Metadata["userId"])
	assert.Equal(t, user.Email, provider.params.CustomerEmail)
}

func TestServiceCreateCheckoutInactivePlan(t *testing.T) {
	t.Parallel()

	svc, db, _, _ := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, db)

	plan, err := svc.Create(ctx, CreatePlanOptions{Title: "Retired", Price: 100, Status: models.PlanStatusInactive})
	require.NoError(t, err)

	_, err = svc.CreateCheckout(ctx, user, plan.ID)
	assert.ErrorIs(t, err, errcodes.BadRequest("This subscription plan is not available."))

	_, err = svc.CreateCheckout(ctx, user, plan.ID+1000)
	assert.ErrorIs(t, err, errcodes.NotFound("Subscription plan"))
}

func TestServiceApply(t *testing.T) {
	t.Parallel()

	svc, db, _, m := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, db)

	require.NoError(t, svc.Apply(ctx, user.ID, models.SubscriptionPremium))

	stored := &models.User{}
	require.NoError(t, db.NewSelect().Model(stored).Where("u.id = ?", user.ID).Scan(ctx))
	assert.Equal(t, models.SubscriptionPremium, stored.SubscriptionType)
	assert.Equal(t, float64(20), stored.Income)
	require.Len(t, m.confirmations, 1)
	assert.Equal(t, models.SubscriptionPremium, m.confirmations[0])

	// Replaying the same event writes the same values again.
	require.NoError(t, svc.Apply(ctx, user.ID, models.SubscriptionPremium))
	require.NoError(t, db.NewSelect().Model(stored).Where("u.id = ?", user.ID).Scan(ctx))
	assert.Equal(t, models.SubscriptionPremium, stored.SubscriptionType)
	assert.Equal(t, float64(20), stored.Income)

	// A non-Premium plan carries no income.
	require.NoError(t, svc.Apply(ctx, user.ID, models.SubscriptionFree))
	require.NoError(t, db.NewSelect().Model(stored).Where("u.id = ?", user.ID).Scan(ctx))
	assert.Equal(t, models.SubscriptionFree, stored.SubscriptionType)
	assert.Equal(t, float64(0), stored.Income)

	assert.ErrorIs(t, svc.Apply(ctx, user.ID+1000, models.SubscriptionPremium), errcodes.NotFound("User"))
}

func TestServiceApplyMailFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	svc, db, _, m := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, db)
	m.sendErr = errors.New("smtp down")

	require.NoError(t, svc.Apply(ctx, user.ID, models.SubscriptionPremium))

	stored := &models.User{}
	require.NoError(t, db.NewSelect().Model(stored).Where("u.id = ?", user.ID).Scan(ctx))
	assert.Equal(t, models.SubscriptionPremium, stored.SubscriptionType)
	assert.Equal(t, float64(20), stored.Income)
	assert.Empty(t, m.confirmations)
}
