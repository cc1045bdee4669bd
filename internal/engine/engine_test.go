package engine

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lacodda/kasl/internal/db"
	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/logger"
	"github.com/lacodda/kasl/internal/sampler"
)

func newTestMachine(t *testing.T) (*Machine, *db.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := db.Open(filepath.Join(dir, "kasl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logger.New(io.Discard, "test", logger.LevelError)
	cfg := Config{ActivityThreshold: 30 * time.Second, PauseThreshold: 60 * time.Second}
	m, err := New(store, cfg, log)
	require.NoError(t, err)
	return m, store
}

func TestIdleToWarmingOnActivity(t *testing.T) {
	m, _ := newTestMachine(t)
	now := time.Now()

	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.Equal(t, Warming, m.State())
}

func TestWarmingDiscardsOnIdleBeforeThreshold(t *testing.T) {
	m, _ := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.Equal(t, Warming, m.State())

	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(time.Second), SecondsSinceActive: 5}))
	require.Equal(t, Idle, m.State())
}

func TestWarmingOpensWorkdayAfterThreshold(t *testing.T) {
	m, store := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.Equal(t, Warming, m.State())

	later := now.Add(31 * time.Second)
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: later, SecondsSinceActive: 0}))
	require.Equal(t, Working, m.State())

	wd, err := store.Workdays().GetByDate(context.Background(), db.DateKey(now))
	require.NoError(t, err)
	require.NotNil(t, wd)
	require.True(t, wd.Start.Equal(now.Truncate(time.Second)))
}

func TestWorkingTransitionsToPausedAfterThreshold(t *testing.T) {
	m, store := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(31 * time.Second), SecondsSinceActive: 0}))
	require.Equal(t, Working, m.State())

	pauseTick := now.Add(2 * time.Minute)
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: pauseTick, SecondsSinceActive: 90}))
	require.Equal(t, Paused, m.State())

	open, err := store.Pauses().GetOpen(context.Background(), db.DateKey(now))
	require.NoError(t, err)
	require.NotNil(t, open)
}

func TestPausedResumesToWorkingWithOffsetDuration(t *testing.T) {
	m, store := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(31 * time.Second), SecondsSinceActive: 0}))

	pauseTick := now.Add(2 * time.Minute)
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: pauseTick, SecondsSinceActive: 90}))
	require.Equal(t, Paused, m.State())

	resumeTick := pauseTick.Add(3 * time.Minute)
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: resumeTick, SecondsSinceActive: 0}))
	require.Equal(t, Working, m.State())

	pauses, err := store.Pauses().ListByDate(context.Background(), db.DateKey(now))
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	require.NotNil(t, pauses[0].Duration)
	require.Equal(t, int64(180), *pauses[0].Duration, "duration must subtract the pause threshold")
}

func TestFinalizeWithNoWorkdayIsNoOpenWorkday(t *testing.T) {
	m, _ := newTestMachine(t)
	err := m.Finalize(context.Background(), time.Now())
	require.Error(t, err)
	require.True(t, kaslerr.Is(err, kaslerr.NoOpenWorkday))
}

func TestFinalizeClosesOpenPause(t *testing.T) {
	m, store := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(31 * time.Second), SecondsSinceActive: 0}))

	pauseTick := now.Add(2 * time.Minute)
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: pauseTick, SecondsSinceActive: 90}))
	require.Equal(t, Paused, m.State())

	require.NoError(t, m.Finalize(context.Background(), pauseTick.Add(time.Minute)))
	require.Equal(t, Idle, m.State())

	open, err := store.Pauses().GetOpen(context.Background(), db.DateKey(now))
	require.NoError(t, err)
	require.Nil(t, open)
}

func TestRestoreResumesPausedAcrossRestart(t *testing.T) {
	m, store := newTestMachine(t)
	now := time.Now()
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now, SecondsSinceActive: 0}))
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(31 * time.Second), SecondsSinceActive: 0}))
	require.NoError(t, m.Handle(context.Background(), sampler.Tick{Now: now.Add(2 * time.Minute), SecondsSinceActive: 90}))
	require.Equal(t, Paused, m.State())

	log := logger.New(io.Discard, "test", logger.LevelError)
	cfg := Config{ActivityThreshold: 30 * time.Second, PauseThreshold: 60 * time.Second}
	restarted, err := New(store, cfg, log)
	require.NoError(t, err)
	require.Equal(t, Paused, restarted.State())
}
