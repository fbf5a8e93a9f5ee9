package policies

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

func strPtr(s string) *string {
	return &s
}

func TestServiceRetrieveUnset(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))

	_, err := svc.Retrieve(context.Background())
	assert.ErrorIs(t, err, errcodes.NotFound("Policy"))
}

func TestServiceUpsert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, UpsertPolicyOptions{
		TermsAndConditions: strPtr("Be kind."),
		PrivacyPolicy:      strPtr("We keep your stories private."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Be kind.", created.TermsAndConditions)

	// Patching one field keeps the other.
	updated, err := svc.Upsert(ctx, UpsertPolicyOptions{PrivacyPolicy: strPtr("Updated privacy text.")})
	require.NoError(t, err)
	assert.Equal(t, "Be kind.", updated.TermsAndConditions)
	assert.Equal(t, "Updated privacy text.", updated.PrivacyPolicy)

	stored, err := svc.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, "Updated privacy text.", stored.PrivacyPolicy)

	// Still a single row after repeated writes.
	count, err := db.NewSelect().Model((*models.Policy)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServiceUpsertNoFields(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertPolicyOptions{TermsAndConditions: strPtr("Be kind.")})
	require.NoError(t, err)

	unchanged, err := svc.Upsert(ctx, UpsertPolicyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Be kind.", unchanged.TermsAndConditions)
}
