package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/lacodda/kasl/internal/db"
	"github.com/lacodda/kasl/internal/kaslerr"
)

// Mode selects one of the three supported manual mutations. Adjust's delta
// applies to every Mode; its insertAt only to ModeInsertPause.
type Mode int

const (
	ModeTrimStart Mode = iota
	ModeTrimEnd
	ModeInsertPause
)

// Adjust applies one manual adjustment to date's workday, inside a single
// transaction that re-validates the workday and its pauses before commit.
// delta is always non-negative; insertAt is only meaningful for
// ModeInsertPause and may be nil to request automatic midpoint placement.
func (a *Aggregator) Adjust(ctx context.Context, date string, mode Mode, delta time.Duration, insertAt *time.Time) error {
	err := a.store.WithTx(ctx, func(tx *sql.Tx) error {
		wd, err := a.store.Workdays().GetByDateTx(ctx, tx, date)
		if err != nil {
			return err
		}
		if wd == nil || wd.End == nil {
			return kaslerr.New("report.Adjust", kaslerr.NoOpenWorkday, nil)
		}

		pauses, err := a.store.Pauses().ListByDateTx(ctx, tx, date)
		if err != nil {
			return err
		}

		switch mode {
		case ModeTrimStart:
			return a.trimStart(ctx, tx, wd, pauses, delta)
		case ModeTrimEnd:
			return a.trimEnd(ctx, tx, wd, pauses, delta)
		case ModeInsertPause:
			return a.insertPause(ctx, tx, wd, pauses, delta, insertAt)
		default:
			return kaslerr.New("report.Adjust", kaslerr.InvariantViolation, nil)
		}
	})
	if err != nil {
		return err
	}
	a.invalidate(date)
	return nil
}

// trimStart: Workday.start += delta, valid only if the new start is
// strictly before Workday.end and before the first pause, if any.
func (a *Aggregator) trimStart(ctx context.Context, tx *sql.Tx, wd *db.Workday, pauses []db.Pause, delta time.Duration) error {
	newStart := wd.Start.Add(delta)
	if !newStart.Before(*wd.End) {
		return kaslerr.New("report.trimStart", kaslerr.InvariantViolation, nil)
	}
	if first := firstPauseStart(pauses); first != nil && !newStart.Before(*first) {
		return kaslerr.New("report.trimStart", kaslerr.InvariantViolation, nil)
	}
	return a.store.Workdays().SetStart(ctx, tx, wd.Date, newStart)
}

// trimEnd: Workday.end -= delta, valid only if the new end is strictly
// after Workday.start and after the last pause's end, if any.
func (a *Aggregator) trimEnd(ctx context.Context, tx *sql.Tx, wd *db.Workday, pauses []db.Pause, delta time.Duration) error {
	newEnd := wd.End.Add(-delta)
	if !newEnd.After(wd.Start) {
		return kaslerr.New("report.trimEnd", kaslerr.InvariantViolation, nil)
	}
	if last := lastPauseEnd(pauses); last != nil && !newEnd.After(*last) {
		return kaslerr.New("report.trimEnd", kaslerr.InvariantViolation, nil)
	}
	return a.store.Workdays().SetEnd(ctx, tx, wd.Date, newEnd)
}

// insertPause inserts [P, P+delta] only if it lies inside the workday and
// overlaps no existing pause. Manual pauses skip the detection-delay
// offset that automatic pause closing applies: duration is exactly delta.
func (a *Aggregator) insertPause(ctx context.Context, tx *sql.Tx, wd *db.Workday, pauses []db.Pause, delta time.Duration, insertAt *time.Time) error {
	var start time.Time
	if insertAt != nil {
		start = *insertAt
	} else {
		mid, ok := longestDisplayedMidpoint(wd.Start, *wd.End, pauses, a.minWorkInterval)
		if !ok {
			return kaslerr.New("report.insertPause", kaslerr.InvariantViolation, nil)
		}
		start = mid
	}
	end := start.Add(delta)

	if start.Before(wd.Start) || end.After(*wd.End) || !end.After(start) {
		return kaslerr.New("report.insertPause", kaslerr.InvariantViolation, nil)
	}
	for _, p := range pauses {
		if p.End == nil {
			continue
		}
		if start.Before(*p.End) && p.Start.Before(end) {
			return kaslerr.New("report.insertPause", kaslerr.InvariantViolation, nil)
		}
	}

	_, err := a.store.Pauses().InsertComplete(ctx, tx, wd.Date, start, end, int64(delta.Seconds()))
	if err != nil {
		return err
	}
	return nil
}

func firstPauseStart(pauses []db.Pause) *time.Time {
	var first *time.Time
	for i := range pauses {
		if first == nil || pauses[i].Start.Before(*first) {
			t := pauses[i].Start
			first = &t
		}
	}
	return first
}

func lastPauseEnd(pauses []db.Pause) *time.Time {
	var last *time.Time
	for i := range pauses {
		if pauses[i].End == nil {
			continue
		}
		if last == nil || pauses[i].End.After(*last) {
			t := *pauses[i].End
			last = &t
		}
	}
	return last
}

// longestDisplayedMidpoint finds the longest interval that would actually
// be displayed in a report — i.e. the raw intervals with anything shorter
// than minWorkInterval filtered out — and returns its midpoint. If every
// raw interval is filtered out, there is no displayed interval to place a
// pause inside, so it reports ok=false.
func longestDisplayedMidpoint(start, end time.Time, pauses []db.Pause, minWorkInterval time.Duration) (time.Time, bool) {
	displayed, _, _ := filterShort(rawIntervals(start, end, pauses), minWorkInterval)
	if len(displayed) == 0 {
		return time.Time{}, false
	}
	longest := displayed[0]
	for _, iv := range displayed[1:] {
		if iv.Duration() > longest.Duration() {
			longest = iv
		}
	}
	mid := longest.Start.Add(longest.Duration() / 2)
	return mid, true
}
