package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "kasl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	var version int
	row := s.db.QueryRowContext(context.Background(), `SELECT MAX(version) FROM migrations`)
	require.NoError(t, row.Scan(&version))
	require.Equal(t, len(migrations), version)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kasl.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	row := s2.db.QueryRowContext(context.Background(), `SELECT MAX(version) FROM migrations`)
	require.NoError(t, row.Scan(&version))
	require.Equal(t, len(migrations), version)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.Workdays().UpsertStart(ctx, tx, "2026-07-30", time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	wd, err := s.Workdays().GetByDate(ctx, "2026-07-30")
	require.NoError(t, err)
	require.Nil(t, wd)
}
