package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// PauseRepo reads and writes the pauses table.
type PauseRepo struct{ s *Store }

func (s *Store) Pauses() *PauseRepo { return &PauseRepo{s} }

// InsertOpen inserts a new pause with start set and end/duration NULL —
// the state-machine side effect of Working -> Paused. At most one open
// pause per date may exist at a time; callers are responsible for calling
// this only from that transition.
func (r *PauseRepo) InsertOpen(ctx context.Context, tx *sql.Tx, date string, start time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO pauses(date, start, end, duration) VALUES (?, ?, NULL, NULL)`,
		date, formatTime(start))
	if err != nil {
		return 0, kaslerr.New("PauseRepo.InsertOpen", kaslerr.StorageError, err)
	}
	return res.LastInsertId()
}

// CloseOpen closes date's single open pause (Paused -> Working side
// effect): sets end and the canonical displayed duration, which the
// caller computes, offset by the pause threshold. Manual pauses never pass
// through here; they are written complete by InsertComplete.
func (r *PauseRepo) CloseOpen(ctx context.Context, tx *sql.Tx, date string, end time.Time, duration int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE pauses SET end = ?, duration = ?
		WHERE date = ? AND end IS NULL`,
		formatTime(end), duration, date)
	if err != nil {
		return kaslerr.New("PauseRepo.CloseOpen", kaslerr.StorageError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return kaslerr.New("PauseRepo.CloseOpen", kaslerr.StorageError, err)
	}
	if n == 0 {
		return kaslerr.New("PauseRepo.CloseOpen", kaslerr.StorageError, sql.ErrNoRows)
	}
	return nil
}

// InsertComplete inserts an already-complete pause row, used by manual
// `adjust --mode pause` inserts: no detection-delay offset applies.
func (r *PauseRepo) InsertComplete(ctx context.Context, tx *sql.Tx, date string, start, end time.Time, duration int64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO pauses(date, start, end, duration) VALUES (?, ?, ?, ?)`,
		date, formatTime(start), formatTime(end), duration)
	if err != nil {
		return 0, kaslerr.New("PauseRepo.InsertComplete", kaslerr.StorageError, err)
	}
	return res.LastInsertId()
}

// GetOpenTx returns date's open pause (end IS NULL), or nil if none, within
// an in-flight transaction — used by the state machine when it closes a
// pause on resumed activity or on finalization.
func (r *PauseRepo) GetOpenTx(ctx context.Context, tx *sql.Tx, date string) (*Pause, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, date, start, end, duration FROM pauses WHERE date = ? AND end IS NULL`, date)
	return scanPause(row)
}

// GetOpen is GetOpenTx without a transaction, for read-only callers such as
// daemon startup before any write has begun.
func (r *PauseRepo) GetOpen(ctx context.Context, date string) (*Pause, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT id, date, start, end, duration FROM pauses WHERE date = ? AND end IS NULL`, date)
	return scanPause(row)
}

func scanPause(row *sql.Row) (*Pause, error) {
	var p Pause
	var start string
	var end sql.NullString
	var durationInt sql.NullInt64
	if err := row.Scan(&p.ID, &p.Date, &start, &end, &durationInt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, kaslerr.New("PauseRepo.scan", kaslerr.StorageError, err)
	}
	st, err := parseTime(start)
	if err != nil {
		return nil, kaslerr.New("PauseRepo.scan", kaslerr.StorageError, err)
	}
	p.Start = st
	if end.Valid {
		e, err := parseTime(end.String)
		if err != nil {
			return nil, kaslerr.New("PauseRepo.scan", kaslerr.StorageError, err)
		}
		p.End = &e
	}
	if durationInt.Valid {
		d := durationInt.Int64
		p.Duration = &d
	}
	return &p, nil
}

// ListByDate returns every pause (open or closed) for date, ordered by
// start, for report generation and the `pauses` command.
func (r *PauseRepo) ListByDate(ctx context.Context, date string) ([]Pause, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT id, date, start, end, duration FROM pauses WHERE date = ? ORDER BY start`, date)
	if err != nil {
		return nil, kaslerr.New("PauseRepo.ListByDate", kaslerr.StorageError, err)
	}
	defer rows.Close()
	return scanPauses(rows)
}

// ListByDateTx is ListByDate scoped to a transaction, for adjustment
// overlap checks that must see uncommitted siblings consistently.
func (r *PauseRepo) ListByDateTx(ctx context.Context, tx *sql.Tx, date string) ([]Pause, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, date, start, end, duration FROM pauses WHERE date = ? ORDER BY start`, date)
	if err != nil {
		return nil, kaslerr.New("PauseRepo.ListByDateTx", kaslerr.StorageError, err)
	}
	defer rows.Close()
	return scanPauses(rows)
}

func scanPauses(rows *sql.Rows) ([]Pause, error) {
	var out []Pause
	for rows.Next() {
		var p Pause
		var start string
		var end sql.NullString
		var durationInt sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Date, &start, &end, &durationInt); err != nil {
			return nil, kaslerr.New("PauseRepo.scanPauses", kaslerr.StorageError, err)
		}
		st, err := parseTime(start)
		if err != nil {
			return nil, kaslerr.New("PauseRepo.scanPauses", kaslerr.StorageError, err)
		}
		p.Start = st
		if end.Valid {
			e, err := parseTime(end.String)
			if err != nil {
				return nil, kaslerr.New("PauseRepo.scanPauses", kaslerr.StorageError, err)
			}
			p.End = &e
		}
		if durationInt.Valid {
			d := durationInt.Int64
			p.Duration = &d
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
