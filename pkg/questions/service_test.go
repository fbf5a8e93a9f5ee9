package questions

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

func seedSection(t *testing.T, db *bun.DB) *models.Section {
	t.Helper()

	section := &models.Section{NameEN: "Childhood", Published: true}
	_, err := db.NewInsert().Model(section).Exec(context.Background())
	require.NoError(t, err)
	return section
}

func sectionCount(t *testing.T, db *bun.DB, sectionID int) int {
	t.Helper()

	section := &models.Section{}
	err := db.NewSelect().Model(section).Where("s.id = ?", sectionID).Scan(context.Background())
	require.NoError(t, err)
	return section.NumberOfQuestions
}

func TestServiceCreateBatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	section := seedSection(t, db)

	created, err := svc.CreateBatch(ctx, section.ID, []QuestionText{
		{TextEN: "Where did you grow up?", TextES: "¿Dónde creciste?"},
		{TextEN: "What games did you play?"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)
	assert.Equal(t, 2, sectionCount(t, db, section.ID))

	listed, err := svc.ListBySection(ctx, section.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "¿Dónde creciste?", listed[0].Text("es"))
	assert.Equal(t, "What games did you play?", listed[1].Text("es"))
}

func TestServiceCreateBatchUnknownSection(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, 999, []QuestionText{{TextEN: "Orphan question"}})
	assert.ErrorIs(t, err, errcodes.NotFound("Section"))
}

func TestServiceDeleteDecrementsCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	section := seedSection(t, db)

	created, err := svc.CreateBatch(ctx, section.ID, []QuestionText{
		{TextEN: "Where did you grow up?"},
		{TextEN: "What games did you play?"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created[0].ID))
	assert.Equal(t, 1, sectionCount(t, db, section.ID))

	_, err = svc.Retrieve(ctx, created[0].ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Question"))

	assert.ErrorIs(t, svc.Delete(ctx, created[0].ID), errcodes.NotFound("Question"))
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	section := seedSection(t, db)

	created, err := svc.CreateBatch(ctx, section.ID, []QuestionText{{TextEN: "Where did you grow up?"}})
	require.NoError(t, err)

	question := created[0]
	question.TextEN = "Where were you born?"
	_, err = svc.Update(ctx, UpdateQuestionOptions{Question: question, Columns: []string{"text_en"}})
	require.NoError(t, err)

	stored, err := svc.Retrieve(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, "Where were you born?", stored.TextEN)
}
