package reports

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taleweave/taleweave/pkg/migrations"
	"github.com/taleweave/taleweave/pkg/models"
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

func seedUser(t *testing.T, db *bun.DB, email, subscriptionType string, income float64, createdAt time.Time) *models.User {
	t.Helper()

	user := &models.User{
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		Firstname:         "Test",
		Email:             email,
		PasswordHash:      "not-a-real-hash",
		Role:              models.RoleUser,
		PreferredLanguage: "en",
		SubscriptionType:  subscriptionType,
		Income:            income,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func seedOrder(t *testing.T, db *bun.DB, userID int, status string, total float64, createdAt time.Time) {
	t.Helper()

	order := &models.Order{
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		UserID:    userID,
		BookTitle: "My Story",
		Quantity:  1,
		Price:     total,
		Total:     total,
		Status:    status,
	}
	_, err := db.NewInsert().Model(order).Exec(context.Background())
	require.NoError(t, err)
}

func TestServiceIncome(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	march := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, time.April, 5, 12, 0, 0, 0, time.UTC)

	user := seedUser(t, db, "premium@example.com", models.SubscriptionPremium, 20, march)
	seedUser(t, db, "free@example.com", models.SubscriptionFree, 0, march)

	seedOrder(t, db, user.ID, models.OrderStatusConfirmed, 100, march)
	seedOrder(t, db, user.ID, models.OrderStatusConfirmed, 50, march)
	seedOrder(t, db, user.ID, models.OrderStatusConfirmed, 75, april)
	// Pending orders are not revenue.
	seedOrder(t, db, user.ID, models.OrderStatusPending, 999, april)

	report, err := svc.Income(ctx)
	require.NoError(t, err)

	require.Len(t, report.OrderTotals, 2)
	assert.Equal(t, MonthlyAmount{Month: "2026-03", Amount: 150}, report.OrderTotals[0])
	assert.Equal(t, MonthlyAmount{Month: "2026-04", Amount: 75}, report.OrderTotals[1])

	require.Len(t, report.UserIncome, 1)
	assert.Equal(t, MonthlyAmount{Month: "2026-03", Amount: 20}, report.UserIncome[0])
}

func TestServiceSubscriberGrowth(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	march := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, time.April, 5, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedUser(t, db, fmt.Sprintf("march%d@example.com", i), models.SubscriptionPremium, 20, march)
	}
	seedUser(t, db, "april@example.com", models.SubscriptionPremium, 20, april)
	seedUser(t, db, "free@example.com", models.SubscriptionFree, 0, march)

	growth, err := svc.SubscriberGrowth(ctx)
	require.NoError(t, err)
	require.Len(t, growth, 2)
	assert.Equal(t, MonthlyCount{Month: "2026-03", Count: 3}, growth[0])
	assert.Equal(t, MonthlyCount{Month: "2026-04", Count: 1}, growth[1])
}
