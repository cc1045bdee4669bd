// Package engine consumes sampler ticks and emits workday/pause
// transitions against the persistence layer. The machine is
// single-threaded: ticks arrive on a channel and are processed strictly
// in order.
package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/lacodda/kasl/internal/db"
	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/logger"
	"github.com/lacodda/kasl/internal/sampler"
)

// State is one of the four workday lifecycle states.
type State int

const (
	Idle State = iota
	Warming
	Working
	Paused
)

func (s State) String() string {
	switch s {
	case Warming:
		return "Warming"
	case Working:
		return "Working"
	case Paused:
		return "Paused"
	default:
		return "Idle"
	}
}

// Config mirrors config.Monitor, translated to time.Duration for the
// machine's own arithmetic.
type Config struct {
	ActivityThreshold time.Duration
	PauseThreshold    time.Duration
}

// Machine is the workday/pause state machine. It owns all workday/pause
// bookkeeping and is the only consumer of the persistence layer at runtime.
type Machine struct {
	store  *db.Store
	cfg    Config
	log    *logger.Logger
	state  State
	warmingSince time.Time
	openPauseID  int64
}

// New constructs a Machine and restores its initial state from
// persistence: if today's workday exists with an open pause, resume
// Paused with the pause's original start preserved; if it exists with no
// open pause, resume Working; otherwise Idle.
func New(store *db.Store, cfg Config, log *logger.Logger) (*Machine, error) {
	m := &Machine{store: store, cfg: cfg, log: log, state: Idle}
	if err := m.restore(context.Background(), time.Now()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine) restore(ctx context.Context, now time.Time) error {
	date := db.DateKey(now)
	wd, err := m.store.Workdays().GetByDate(ctx, date)
	if err != nil {
		return err
	}
	if wd == nil {
		m.state = Idle
		return nil
	}
	open, err := m.store.Pauses().GetOpen(ctx, date)
	if err != nil {
		return err
	}
	if open != nil {
		m.state = Paused
		m.openPauseID = open.ID
		m.log.Info("restored into Paused", "date", date, "pause_start", open.Start)
		return nil
	}
	m.state = Working
	m.log.Info("restored into Working", "date", date)
	return nil
}

// State returns the machine's current state (for tests and status output).
func (m *Machine) State() State { return m.state }

// Handle applies one sampler tick to the machine's transition table. A
// storage failure here is fatal to the daemon: it is never silently
// swallowed.
func (m *Machine) Handle(ctx context.Context, tick sampler.Tick) error {
	sa := tick.SecondsSinceActive
	now := tick.Now
	date := db.DateKey(now)

	switch m.state {
	case Idle:
		if sa == 0 {
			m.warmingSince = now
			m.state = Warming
		}
	case Warming:
		if sa > 0 {
			m.state = Idle
			m.warmingSince = time.Time{}
			return nil
		}
		if now.Sub(m.warmingSince) >= m.cfg.ActivityThreshold {
			if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
				if err := m.store.Workdays().UpsertStart(ctx, tx, db.DateKey(m.warmingSince), m.warmingSince); err != nil {
					return err
				}
				return m.store.Workdays().AdvanceEnd(ctx, tx, db.DateKey(m.warmingSince), now)
			}); err != nil {
				return err
			}
			m.state = Working
			m.log.Info("workday opened", "date", date, "start", m.warmingSince)
		}
	case Working:
		if sa >= m.cfg.PauseThreshold.Seconds() {
			pauseStart := now.Add(-m.cfg.PauseThreshold)
			if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
				id, err := m.store.Pauses().InsertOpen(ctx, tx, date, pauseStart)
				if err != nil {
					return err
				}
				m.openPauseID = id
				return nil
			}); err != nil {
				return err
			}
			m.state = Paused
			m.log.Info("pause started", "date", date, "start", pauseStart)
			return nil
		}
		if sa == 0 {
			if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
				return m.store.Workdays().AdvanceEnd(ctx, tx, date, now)
			}); err != nil {
				return err
			}
		}
	case Paused:
		if sa == 0 {
			if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
				open, err := m.store.Pauses().GetOpenTx(ctx, tx, date)
				if err != nil {
					return err
				}
				if open == nil {
					return kaslerr.New("engine.Handle", kaslerr.StorageError, sql.ErrNoRows)
				}
				duration := int64(now.Sub(open.Start).Seconds()) - int64(m.cfg.PauseThreshold.Seconds())
				if duration < 0 {
					duration = 0
				}
				if err := m.store.Pauses().CloseOpen(ctx, tx, date, now, duration); err != nil {
					return err
				}
				return m.store.Workdays().AdvanceEnd(ctx, tx, date, now)
			}); err != nil {
				return err
			}
			m.state = Working
			m.openPauseID = 0
			m.log.Info("pause ended", "date", date, "end", now)
		}
	}
	return nil
}

// Finalize drives the machine through a synthetic shutdown tick: it
// closes any open pause and sets Workday.end = now, then resets to Idle.
// Used by the daemon's signal handler and by the `end` command.
func (m *Machine) Finalize(ctx context.Context, now time.Time) error {
	date := db.DateKey(now)
	switch m.state {
	case Idle:
		return kaslerr.New("engine.Finalize", kaslerr.NoOpenWorkday, nil)
	case Warming:
		m.state = Idle
		m.warmingSince = time.Time{}
		return nil
	case Working:
		if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
			return m.store.Workdays().AdvanceEnd(ctx, tx, date, now)
		}); err != nil {
			return err
		}
	case Paused:
		if err := m.store.WithTx(ctx, func(tx *sql.Tx) error {
			open, err := m.store.Pauses().GetOpenTx(ctx, tx, date)
			if err != nil {
				return err
			}
			if open == nil {
				return nil
			}
			duration := int64(now.Sub(open.Start).Seconds()) - int64(m.cfg.PauseThreshold.Seconds())
			if duration < 0 {
				duration = 0
			}
			if err := m.store.Pauses().CloseOpen(ctx, tx, date, now, duration); err != nil {
				return err
			}
			return m.store.Workdays().AdvanceEnd(ctx, tx, date, now)
		}); err != nil {
			return err
		}
	}
	m.state = Idle
	m.openPauseID = 0
	return nil
}
