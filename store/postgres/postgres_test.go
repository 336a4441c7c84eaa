package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/store"
	"github.com/warp/placement-points/store/postgres"
)

// newTestStore connects to the database named by POINTS_TEST_POSTGRES_DSN.
// The database is reset before and after each test.
func newTestStore(t *testing.T) *postgres.Store {
	dsn := os.Getenv("POINTS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POINTS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	st, err := postgres.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, st.Reset(ctx))
	t.Cleanup(func() {
		st.Reset(context.Background())
		st.Close()
	})
	return st
}

func TestPostgres_SeedAndReadFlows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, st))
	require.NoError(t, store.Seed(ctx, st))

	recs, err := st.ListFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	rec, err := st.GetFlowBySlug(ctx, "transfer")
	require.NoError(t, err)
	require.NotNil(t, rec)
	flow, err := rec.Flow()
	require.NoError(t, err)
	assert.Equal(t, flows.Transfer().CriteriaSet(), flow.CriteriaSet())
}

func TestPostgres_MigrationsAreIdempotent(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.RunMigrations(context.Background()))
}

func TestPostgres_YearLifecycle(t *testing.T) {
	// GIVEN: A seeded database
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, st))

	y := store.YearRecord{
		ID:               "y1",
		FlowID:           flows.IDTransfer,
		Year:             2023,
		TotalWeeklyHours: 23,
		Placements: []store.PlacementRecord{
			{ID: "p1", Months: 12, MSD: 10, WeeklyHours: 12},
			{ID: "p2", Months: 12, MSD: 3, WeeklyHours: 11},
		},
	}

	// WHEN: Creating it twice
	require.NoError(t, st.CreateYear(ctx, y))
	dup := y
	dup.ID = "y2"
	dup.Placements = nil
	err := st.CreateYear(ctx, dup)

	// THEN: The second insert is a duplicate
	assert.True(t, errors.Is(err, store.ErrDuplicateYear))

	got, err := st.GetYear(ctx, "y1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Placements, 2)
	assert.Equal(t, "p1", got.Placements[0].ID)

	// AND: Deleting the year removes it
	require.NoError(t, st.DeleteYear(ctx, "y1"))
	got, err = st.GetYear(ctx, "y1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgres_AddPlacementUnknownYear(t *testing.T) {
	st := newTestStore(t)
	err := st.AddPlacement(context.Background(), store.PlacementRecord{ID: "p1", YearID: "missing"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestPostgres_SaveFlowSlugTaken(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, st))

	err := st.SaveFlow(ctx, store.FlowRecord{ID: "flow-x", Slug: "transfer", Name: "Copy"})
	assert.True(t, errors.Is(err, store.ErrSlugTaken))
}
