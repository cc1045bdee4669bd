package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withTx(t *testing.T, s *Store, fn func(tx *sql.Tx)) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *sql.Tx) error {
		fn(tx)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertStartIsOnceOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	later := start.Add(time.Hour)

	withTx(t, s, func(tx *sql.Tx) {
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-30", start))
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-30", later))
	})

	wd, err := s.Workdays().GetByDate(ctx, "2026-07-30")
	require.NoError(t, err)
	require.True(t, wd.Start.Equal(start))
}

func TestAdvanceEndIsMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	later := start.Add(time.Hour)
	earlier := start.Add(30 * time.Minute)

	withTx(t, s, func(tx *sql.Tx) {
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-30", start))
		require.NoError(t, s.Workdays().AdvanceEnd(ctx, tx, "2026-07-30", later))
		require.NoError(t, s.Workdays().AdvanceEnd(ctx, tx, "2026-07-30", earlier))
	})

	wd, err := s.Workdays().GetByDate(ctx, "2026-07-30")
	require.NoError(t, err)
	require.True(t, wd.End.Equal(later), "advancing end backward must be a no-op")
}

func TestSetEndForcesBackward(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	later := start.Add(time.Hour)
	earlier := start.Add(30 * time.Minute)

	withTx(t, s, func(tx *sql.Tx) {
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-30", start))
		require.NoError(t, s.Workdays().AdvanceEnd(ctx, tx, "2026-07-30", later))
		require.NoError(t, s.Workdays().SetEnd(ctx, tx, "2026-07-30", earlier))
	})

	wd, err := s.Workdays().GetByDate(ctx, "2026-07-30")
	require.NoError(t, err)
	require.True(t, wd.End.Equal(earlier))
}

func TestListMonthOrdersByDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(tx *sql.Tx) {
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-15", time.Now()))
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-07-02", time.Now()))
		require.NoError(t, s.Workdays().UpsertStart(ctx, tx, "2026-06-30", time.Now()))
	})

	days, err := s.Workdays().ListMonth(ctx, "2026-07")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "2026-07-02", days[0].Date)
	require.Equal(t, "2026-07-15", days[1].Date)
}

func TestDateKeyMatchesStoredFormat(t *testing.T) {
	tm := time.Date(2026, 7, 30, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2026-07-30", DateKey(tm))
}
