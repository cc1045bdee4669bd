package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// WorkdayRepo reads and writes the workdays table. All writes happen
// inside the caller's transaction: a pause start must never be visible
// before its enclosing workday row.
type WorkdayRepo struct{ s *Store }

func (s *Store) Workdays() *WorkdayRepo { return &WorkdayRepo{s} }

// UpsertStart creates the workday row for date if absent, with both start
// and end set to start: at most one row per date, and start is set
// exactly once. If the row already exists this is a no-op — the state
// machine never re-opens a workday once created.
func (r *WorkdayRepo) UpsertStart(ctx context.Context, tx *sql.Tx, date string, start time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO workdays(date, start, end) VALUES (?, ?, ?)
		ON CONFLICT(date) DO NOTHING`,
		date, formatTime(start), formatTime(start))
	if err != nil {
		return kaslerr.New("WorkdayRepo.UpsertStart", kaslerr.StorageError, err)
	}
	return nil
}

// AdvanceEnd sets Workday.end = end, but only if end is later than the
// currently stored value, so a stale tick can never move end backward.
func (r *WorkdayRepo) AdvanceEnd(ctx context.Context, tx *sql.Tx, date string, end time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE workdays SET end = ?
		WHERE date = ? AND (end IS NULL OR end < ?)`,
		formatTime(end), date, formatTime(end))
	if err != nil {
		return kaslerr.New("WorkdayRepo.AdvanceEnd", kaslerr.StorageError, err)
	}
	return nil
}

// SetEnd force-sets Workday.end regardless of monotonic ordering, used by
// `adjust --mode end` (trim), which may legitimately move end earlier.
// `end` finalization goes through AdvanceEnd instead.
func (r *WorkdayRepo) SetEnd(ctx context.Context, tx *sql.Tx, date string, end time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE workdays SET end = ? WHERE date = ?`, formatTime(end), date)
	if err != nil {
		return kaslerr.New("WorkdayRepo.SetEnd", kaslerr.StorageError, err)
	}
	return nil
}

// SetStart force-sets Workday.start, used by `adjust --mode start` (trim).
func (r *WorkdayRepo) SetStart(ctx context.Context, tx *sql.Tx, date string, start time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE workdays SET start = ? WHERE date = ?`, formatTime(start), date)
	if err != nil {
		return kaslerr.New("WorkdayRepo.SetStart", kaslerr.StorageError, err)
	}
	return nil
}

// GetByDate returns the workday for date, or nil if none exists (not an
// error: most dates have no workday).
func (r *WorkdayRepo) GetByDate(ctx context.Context, date string) (*Workday, error) {
	row := r.s.db.QueryRowContext(ctx, `SELECT date, start, end FROM workdays WHERE date = ?`, date)
	return scanWorkday(row)
}

// GetByDateTx is GetByDate scoped to an in-flight transaction, used by
// adjustments that must read-then-write consistently within a single
// transaction boundary.
func (r *WorkdayRepo) GetByDateTx(ctx context.Context, tx *sql.Tx, date string) (*Workday, error) {
	row := tx.QueryRowContext(ctx, `SELECT date, start, end FROM workdays WHERE date = ?`, date)
	return scanWorkday(row)
}

func scanWorkday(row *sql.Row) (*Workday, error) {
	var w Workday
	var start string
	var end sql.NullString
	if err := row.Scan(&w.Date, &start, &end); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, kaslerr.New("WorkdayRepo.scan", kaslerr.StorageError, err)
	}
	st, err := parseTime(start)
	if err != nil {
		return nil, kaslerr.New("WorkdayRepo.scan", kaslerr.StorageError, err)
	}
	w.Start = st
	if end.Valid {
		e, err := parseTime(end.String)
		if err != nil {
			return nil, kaslerr.New("WorkdayRepo.scan", kaslerr.StorageError, err)
		}
		w.End = &e
	}
	return &w, nil
}

// ListMonth returns every workday whose date falls within [YYYY-MM-01,
// YYYY-MM-31], ordered by date, for the Report Aggregator's monthly roll-up.
func (r *WorkdayRepo) ListMonth(ctx context.Context, yearMonth string) ([]Workday, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT date, start, end FROM workdays WHERE date LIKE ? ORDER BY date`, yearMonth+"-%")
	if err != nil {
		return nil, kaslerr.New("WorkdayRepo.ListMonth", kaslerr.StorageError, err)
	}
	defer rows.Close()

	var out []Workday
	for rows.Next() {
		var w Workday
		var start string
		var end sql.NullString
		if err := rows.Scan(&w.Date, &start, &end); err != nil {
			return nil, kaslerr.New("WorkdayRepo.ListMonth", kaslerr.StorageError, err)
		}
		st, err := parseTime(start)
		if err != nil {
			return nil, kaslerr.New("WorkdayRepo.ListMonth", kaslerr.StorageError, err)
		}
		w.Start = st
		if end.Valid {
			e, err := parseTime(end.String)
			if err != nil {
				return nil, kaslerr.New("WorkdayRepo.ListMonth", kaslerr.StorageError, err)
			}
			w.End = &e
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DateKey formats t the same way the repositories derive a row's date
// column, so callers (the state machine, the CLI) stay consistent with
// storage.
func DateKey(t time.Time) string { return dateKey(t) }
