package orders

import (
	"context"
	"database/sql"
	"testing"

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

func seedUser(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	user := &models.User{
		Firstname:         "Maria",
		Lastname:          "Lopez",
		Email:             "maria@example.com",
		PasswordHash:      "not-a-real-hash",
		Role:              models.RoleUser,
		PreferredLanguage: "en",
		SubscriptionType:  models.SubscriptionFree,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider, "http://client.test")
	ctx := context.Background()
	user := seedUser(t, db)

	order, checkoutURL, err := svc.Create(ctx, CreateOrderOptions{
		User:      user,
		BookTitle: "My Story",
		Quantity:  3,
		Price:     12.50,
		ShippingAddress: &models.ShippingAddress{
			Line1:      "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		PDFLink: "http://files.test/uploads/orders/book.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_test", checkoutURL)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 37.5, order.Total)

	// The checkout session carries the order id for the webhook.
	require.Len(t, provider.params.Items, 1)
	assert.Equal(t, int64(1250), provider.params.Items[0].UnitAmount)
	assert.Equal(t, int64(3), provider.params.Items[0].Quantity)
	assert.NotEmpty(t, provider.params.Metadata["orderId"])
	assert.True(t, provider.params.CollectShipping)

	// An unread admin notification was written alongside the order.
	notifications := []*models.Notification{}
	require.NoError(t, db.NewSelect().Model(&notifications).Scan(ctx))
	require.Len(t, notifications, 1)
	require.NotNil(t, notifications[0].OrderID)
	assert.Equal(t, order.ID, *notifications[0].OrderID)
	assert.Equal(t, models.NotificationStatusUnread, notifications[0].Status)
}

func TestServiceRetrieveOwnerScoped(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, &fakeProvider{}, "http://client.test")
	ctx := context.Background()
	user := seedUser(t, db)

	order, _, err := svc.Create(ctx, CreateOrderOptions{User: user, BookTitle: "My Story", Quantity: 1, Price: 10})
	require.NoError(t, err)

	found, err := svc.Retrieve(ctx, RetrieveOrderOptions{ID: order.ID, UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.NotNil(t, found.User)
	assert.Equal(t, user.Email, found.User.Email)

	otherUser := user.ID + 1
	_, err = svc.Retrieve(ctx, RetrieveOrderOptions{ID: order.ID, UserID: &otherUser})
	assert.ErrorIs(t, err, errcodes.NotFound("Order"))
}

func TestServiceConfirm(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, &fakeProvider{}, "http://client.test")
	ctx := context.Background()
	user := seedUser(t, db)

	order, _, err := svc.Create(ctx, CreateOrderOptions{User: user, BookTitle: "My Story", Quantity: 1, Price: 10})
	require.NoError(t, err)

	session := payments.CheckoutSession{
		PaymentIntentID: "pi_123",
		CustomerEmail:   "maria@example.com",
		CustomerName:    "Maria Lopez",
		CustomerPhone:   "+1555000111",
	}
	require.NoError(t, svc.Confirm(ctx, order.ID, session))

	confirmed, err := svc.Retrieve(ctx, RetrieveOrderOptions{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, "pi_123", confirmed.PaymentID)
	assert.Equal(t, "Maria Lopez", confirmed.CustomerName)

	// Replaying the event is a no-op.
	require.NoError(t, svc.Confirm(ctx, order.ID, payments.CheckoutSession{PaymentIntentID: "pi_other"}))
	again, err := svc.Retrieve(ctx, RetrieveOrderOptions{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", again.PaymentID)

	assert.ErrorIs(t, svc.Confirm(ctx, order.ID+1000, session), errcodes.NotFound("Order"))
}

func TestServiceConfirmSkipsNonPending(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, &fakeProvider{}, "http://client.test")
	ctx := context.Background()
	user := seedUser(t, db)

	order, _, err := svc.Create(ctx, CreateOrderOptions{User: user, BookTitle: "My Story", Quantity: 1, Price: 10})
	require.NoError(t, err)

	order.Status = models.OrderStatusCancelled
	_, err = svc.Update(ctx, UpdateOrderOptions{Order: order, Columns: []string{"status"}})
	require.NoError(t, err)

	require.NoError(t, svc.Confirm(ctx, order.ID, payments.CheckoutSession{PaymentIntentID: "pi_late"}))

	stored, err := svc.Retrieve(ctx, RetrieveOrderOptions{ID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Empty(t, stored.PaymentID)
}
