package tickets

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

func seedTrain(t *testing.T, db *bun.DB) (*models.Train, []*models.Station) {
	t.Helper()
	ctx := context.Background()

	stations := []*models.Station{
		{Name: "Central", Code: "CTL", City: "Springfield"},
		{Name: "Riverside", Code: "RVS", City: "Shelbyville"},
		{Name: "Hilltop", Code: "HLT", City: "Ogdenville"},
	}
	for _, station := range stations {
		_, err := db.NewInsert().Model(station).Exec(ctx)
		require.NoError(t, err)
	}

	train := &models.Train{
		Name: "Morning Express",
		Stops: models.TrainStops{
			{StationID: stations[0].ID, DepartureTime: "08:00"},
			{StationID: stations[1].ID, ArrivalTime: "08:45", DepartureTime: "08:50"},
			{StationID: stations[2].ID, ArrivalTime: "09:30"},
		},
	}
	_, err := db.NewInsert().Model(train).Exec(ctx)
	require.NoError(t, err)

	return train, stations
}

func TestServiceAddFunds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db)

	// Wallet does not exist until the first credit.
	_, err := svc.Wallet(ctx, user.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Wallet"))

	wallet, err := svc.AddFunds(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, float64(100), wallet.Balance)
	require.Len(t, wallet.Transactions, 1)
	assert.Equal(t, models.WalletTxnCredit, wallet.Transactions[0].Type)

	wallet, err = svc.AddFunds(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, float64(150), wallet.Balance)
	require.Len(t, wallet.Transactions, 2)

	stored, err := svc.Wallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(150), stored.Balance)
}

func TestServicePurchase(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db)
	train, stations := seedTrain(t, db)

	_, err := svc.AddFunds(ctx, user.ID, 100)
	require.NoError(t, err)

	ticket, err := svc.Purchase(ctx, PurchaseOptions{
		UserID:        user.ID,
		TrainID:       train.ID,
		FromStationID: stations[0].ID,
		ToStationID:   stations[2].ID,
		Fare:          60,
	})
	require.NoError(t, err)
	assert.NotZero(t, ticket.ID)
	assert.False(t, ticket.IssuedAt.IsZero())

	wallet, err := svc.Wallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(40), wallet.Balance)
	require.Len(t, wallet.Transactions, 2)
	assert.Equal(t, models.WalletTxnDebit, wallet.Transactions[1].Type)
	assert.Equal(t, float64(60), wallet.Transactions[1].Amount)

	listed, err := svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Train)
	assert.Equal(t, "Morning Express", listed[0].Train.Name)
	require.NotNil(t, listed[0].FromStation)
	assert.Equal(t, "CTL", listed[0].FromStation.Code)
}

func TestServicePurchaseInsufficientBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db)
	train, stations := seedTrain(t, db)

	_, err := svc.AddFunds(ctx, user.ID, 30)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, PurchaseOptions{
		UserID:        user.ID,
		TrainID:       train.ID,
		FromStationID: stations[0].ID,
		ToStationID:   stations[1].ID,
		Fare:          60,
	})
	assert.ErrorIs(t, err, errcodes.InsufficientBalance())

	// The failed purchase left no trace.
	wallet, err := svc.Wallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(30), wallet.Balance)
	require.Len(t, wallet.Transactions, 1)

	listed, err := svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestServicePurchaseNoWallet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db)
	train, stations := seedTrain(t, db)

	_, err := svc.Purchase(ctx, PurchaseOptions{
		UserID:        user.ID,
		TrainID:       train.ID,
		FromStationID: stations[0].ID,
		ToStationID:   stations[1].ID,
		Fare:          10,
	})
	assert.ErrorIs(t, err, errcodes.InsufficientBalance())
}

func TestServicePurchaseValidatesStops(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db)
	train, stations := seedTrain(t, db)

	_, err := svc.AddFunds(ctx, user.ID, 100)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, PurchaseOptions{
		UserID:        user.ID,
		TrainID:       train.ID,
		FromStationID: stations[0].ID,
		ToStationID:   stations[2].ID + 1000,
		Fare:          60,
	})
	assert.ErrorIs(t, err, errcodes.ValidationError("This train does not stop at the selected stations"))

	_, err = svc.Purchase(ctx, PurchaseOptions{
		UserID:        user.ID,
		TrainID:       train.ID + 1000,
		FromStationID: stations[0].ID,
		ToStationID:   stations[1].ID,
		Fare:          60,
	})
	assert.ErrorIs(t, err, errcodes.NotFound("Train"))
}
