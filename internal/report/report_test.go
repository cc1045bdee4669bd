package report

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lacodda/kasl/internal/db"
)

func newTestAggregator(t *testing.T, minWorkInterval time.Duration) (*Aggregator, *db.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := db.Open(filepath.Join(dir, "kasl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, minWorkInterval), store
}

func seedWorkday(t *testing.T, store *db.Store, date string, start, end time.Time, pauses [][2]time.Time) {
	t.Helper()
	ctx := context.Background()
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.Workdays().UpsertStart(ctx, tx, date, start); err != nil {
			return err
		}
		if err := store.Workdays().AdvanceEnd(ctx, tx, date, end); err != nil {
			return err
		}
		for _, p := range pauses {
			dur := int64(p[1].Sub(p[0]).Seconds())
			if _, err := store.Pauses().InsertComplete(ctx, tx, date, p[0], p[1], dur); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestDailyReportWithNoWorkdayIsEmpty(t *testing.T) {
	agg, _ := newTestAggregator(t, time.Minute)
	rep, err := agg.Daily(context.Background(), "2026-07-30")
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), rep.Net)
	require.Nil(t, rep.Intervals)
}

func TestDailyReportComputesNetAndProductivity(t *testing.T) {
	agg, store := newTestAggregator(t, time.Minute)
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	pause := [2]time.Time{start.Add(2 * time.Hour), start.Add(2*time.Hour + 30*time.Minute)}
	seedWorkday(t, store, "2026-07-30", start, end, [][2]time.Time{pause})

	rep, err := agg.Daily(context.Background(), "2026-07-30")
	require.NoError(t, err)
	require.Equal(t, 8*time.Hour, rep.Gross)
	require.Equal(t, 7*time.Hour+30*time.Minute, rep.Net)
	require.InDelta(t, 93.8, rep.Productivity, 0.1)
	require.Len(t, rep.Intervals, 2)
}

func TestDailyReportFiltersShortIntervals(t *testing.T) {
	agg, store := newTestAggregator(t, 10*time.Minute)
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	pause := [2]time.Time{start.Add(5 * time.Minute), start.Add(10 * time.Minute)}
	seedWorkday(t, store, "2026-07-30", start, end, [][2]time.Time{pause})

	rep, err := agg.Daily(context.Background(), "2026-07-30")
	require.NoError(t, err)
	require.Equal(t, 1, rep.FilteredCount)
	require.Len(t, rep.Intervals, 1)
}

func TestDailyReportCacheInvalidatesOnAdjust(t *testing.T) {
	agg, store := newTestAggregator(t, time.Minute)
	start := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	seedWorkday(t, store, "2026-07-30", start, end, nil)

	first, err := agg.Daily(context.Background(), "2026-07-30")
	require.NoError(t, err)
	require.Equal(t, time.Hour, first.Net)

	require.NoError(t, agg.Adjust(context.Background(), "2026-07-30", ModeTrimEnd, 10*time.Minute, nil))

	second, err := agg.Daily(context.Background(), "2026-07-30")
	require.NoError(t, err)
	require.Equal(t, 50*time.Minute, second.Net)
}

func TestMonthlyReportAggregatesWorkdays(t *testing.T) {
	agg, store := newTestAggregator(t, time.Minute)
	start1 := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	start2 := time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC)
	seedWorkday(t, store, "2026-07-01", start1, start1.Add(4*time.Hour), nil)
	seedWorkday(t, store, "2026-07-02", start2, start2.Add(6*time.Hour), nil)

	rep, err := agg.Monthly(context.Background(), "2026-07", nil)
	require.NoError(t, err)
	require.Len(t, rep.Days, 2)
	require.Equal(t, 10*time.Hour, rep.TotalNet)
}
