package trains

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

func seedStations(t *testing.T, db *bun.DB) []*models.Station {
	t.Helper()

	stations := []*models.Station{
		{Name: "Central", Code: "CTL", City: "Springfield"},
		{Name: "Riverside", Code: "RVS", City: "Shelbyville"},
	}
	for _, station := range stations {
		_, err := db.NewInsert().Model(station).Exec(context.Background())
		require.NoError(t, err)
	}
	return stations
}

func TestServiceCreateVerifiesStops(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	stations := seedStations(t, db)

	train, err := svc.Create(ctx, CreateTrainOptions{
		Name: "Morning Express",
		Stops: models.TrainStops{
			{StationID: stations[0].ID, DepartureTime: "08:00"},
			{StationID: stations[1].ID, ArrivalTime: "08:45"},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, train.ID)

	_, err = svc.Create(ctx, CreateTrainOptions{
		Name: "Ghost Train",
		Stops: models.TrainStops{
			{StationID: stations[0].ID},
			{StationID: 999},
		},
	})
	assert.ErrorIs(t, err, errcodes.ValidationError("One or more stops reference an unknown station"))
}

func TestServiceRetrieveResolvesStations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	stations := seedStations(t, db)

	created, err := svc.Create(ctx, CreateTrainOptions{
		Name: "Morning Express",
		Stops: models.TrainStops{
			{StationID: stations[0].ID, DepartureTime: "08:00"},
			{StationID: stations[1].ID, ArrivalTime: "08:45"},
		},
	})
	require.NoError(t, err)

	train, err := svc.Retrieve(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, train.Stops, 2)
	require.NotNil(t, train.Stops[0].Station)
	assert.Equal(t, "Central", train.Stops[0].Station.Name)
	require.NotNil(t, train.Stops[1].Station)
	assert.Equal(t, "RVS", train.Stops[1].Station.Code)

	_, err = svc.Retrieve(ctx, created.ID+1000)
	assert.ErrorIs(t, err, errcodes.NotFound("Train"))
}

func TestServiceUpdateReplacesStops(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	stations := seedStations(t, db)

	train, err := svc.Create(ctx, CreateTrainOptions{
		Name: "Morning Express",
		Stops: models.TrainStops{
			{StationID: stations[0].ID},
			{StationID: stations[1].ID},
		},
	})
	require.NoError(t, err)

	train.Stops = models.TrainStops{
		{StationID: stations[1].ID, DepartureTime: "18:00"},
		{StationID: stations[0].ID, ArrivalTime: "18:45"},
	}
	_, err = svc.Update(ctx, UpdateTrainOptions{Train: train, Columns: []string{"stops"}})
	require.NoError(t, err)

	stored, err := svc.Retrieve(ctx, train.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 2)
	assert.Equal(t, stations[1].ID, stored.Stops[0].StationID)
	assert.Equal(t, "18:00", stored.Stops[0].DepartureTime)
}
