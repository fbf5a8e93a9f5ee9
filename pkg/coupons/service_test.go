package coupons

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taleweave/taleweave/pkg/errcodes"
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

func timePtr(tm time.Time) *time.Time {
	return &tm
}

func TestServiceCreateNormalizesCode(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	coupon, err := svc.Create(ctx, CreateCouponOptions{Name: "Summer Sale", Code: "summer20", Discount: 20})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER20", coupon.Code)
	assert.Equal(t, models.CouponStatusActive, coupon.Status)

	// Duplicate detection is case-insensitive.
	_, err = svc.Create(ctx, CreateCouponOptions{Name: "Other", Code: "Summer20", Discount: 10})
	assert.ErrorIs(t, err, errcodes.ValidationError("Coupon code already exists"))
}

func TestServiceCreateSetsTimestamps(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, CreateCouponOptions{Name: "Summer Sale", Code: "SUMMER20", Discount: 20})
	require.NoError(t, err)

	// Read the column back rather than trusting the in-memory struct, so a
	// zero value sneaking past the insert shows up here.
	stored := &models.Coupon{}
	err = db.NewSelect().Model(stored).Where("cp.id = ?", coupon.ID).Scan(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Minute)
	assert.WithinDuration(t, time.Now(), stored.UpdatedAt, time.Minute)
}

func TestServiceListNewestFirst(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	for _, code := range []string{"FIRST10", "SECOND10", "THIRD10"} {
		_, err := svc.Create(ctx, CreateCouponOptions{Name: code, Code: code, Discount: 10})
		require.NoError(t, err)
	}

	coupons, err := svc.List(ctx, ListCouponsOptions{})
	require.NoError(t, err)
	require.Len(t, coupons, 3)
	assert.Equal(t, "THIRD10", coupons[0].Code)
	assert.Equal(t, "SECOND10", coupons[1].Code)
	assert.Equal(t, "FIRST10", coupons[2].Code)
}

func TestServiceApply(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponOptions{Name: "Summer Sale", Code: "SUMMER20", Discount: 20})
	require.NoError(t, err)

	coupon, finalPrice, err := svc.Apply(ctx, "summer20", 200)
	require.NoError(t, err)
	assert.Equal(t, "SUMMER20", coupon.Code)
	assert.Equal(t, float64(160), finalPrice)

	_, _, err = svc.Apply(ctx, "NOSUCHCODE", 200)
	assert.ErrorIs(t, err, errcodes.BadRequest("This coupon code is not valid."))
}

func TestServiceApplyValidityWindow(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Create(ctx, CreateCouponOptions{
		Name:      "Expired",
		Code:      "EXPIRED10",
		Discount:  10,
		StartDate: timePtr(now.Add(-48 * time.Hour)),
		EndDate:   timePtr(now.Add(-24 * time.Hour)),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCouponOptions{
		Name:      "Upcoming",
		Code:      "SOON10",
		Discount:  10,
		StartDate: timePtr(now.Add(24 * time.Hour)),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCouponOptions{
		Name:      "Current",
		Code:      "NOW10",
		Discount:  10,
		StartDate: timePtr(now.Add(-24 * time.Hour)),
		EndDate:   timePtr(now.Add(24 * time.Hour)),
	})
	require.NoError(t, err)

	_, _, err = svc.Apply(ctx, "EXPIRED10", 100)
	assert.ErrorIs(t, err, errcodes.BadRequest("This coupon code is not valid."))

	_, _, err = svc.Apply(ctx, "SOON10", 100)
	assert.ErrorIs(t, err, errcodes.BadRequest("This coupon code is not valid."))

	_, finalPrice, err := svc.Apply(ctx, "NOW10", 100)
	require.NoError(t, err)
	assert.Equal(t, float64(90), finalPrice)
}

func TestServiceApplyInactive(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponOptions{
		Name:     "Disabled",
		Code:     "DISABLED10",
		Discount: 10,
		Status:   models.CouponStatusInactive,
	})
	require.NoError(t, err)

	_, _, err = svc.Apply(ctx, "DISABLED10", 100)
	assert.ErrorIs(t, err, errcodes.BadRequest("This coupon code is not valid."))
}

func TestServiceListFiltersByStatus(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCouponOptions{Name: "A", Code: "A10", Discount: 10})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCouponOptions{Name: "B", Code: "B10", Discount: 10, Status: models.CouponStatusInactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, ListCouponsOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := models.CouponStatusActive
	filtered, err := svc.List(ctx, ListCouponsOptions{Status: &active})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "A10", filtered[0].Code)
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	coupon, err := svc.Create(ctx, CreateCouponOptions{Name: "A", Code: "A10", Discount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, coupon.ID))
	assert.ErrorIs(t, svc.Delete(ctx, coupon.ID), errcodes.NotFound("Coupon"))
}
