// Package facade is the only surface the CLI layer is allowed to call
// into. It exposes exactly the six operations the CLI commands need and
// nothing about the engine, sampler, or raw repositories underneath.
package facade

import (
	"context"
	"time"

	"github.com/lacodda/kasl/internal/config"
	"github.com/lacodda/kasl/internal/daemon"
	"github.com/lacodda/kasl/internal/db"
	"github.com/lacodda/kasl/internal/engine"
	"github.com/lacodda/kasl/internal/event"
	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/logger"
	"github.com/lacodda/kasl/internal/report"
	"github.com/lacodda/kasl/internal/sampler"
)

// Facade bundles the persistence/daemon/report handles the six commands
// need. Construct one per process invocation.
type Facade struct {
	Store      *db.Store
	Supervisor *daemon.Supervisor
	Aggregator *report.Aggregator
	Config     *config.Config
	Log        *logger.Logger
}

// Watch implements `watch`: foreground=true runs the tracking engine
// in-process for debugging; foreground=false starts/stops the background
// daemon depending on stop.
func (f *Facade) Watch(ctx context.Context, foregroundArgv []string, foreground, stop bool) error {
	if stop {
		return f.Supervisor.Stop(ctx)
	}
	if !foreground {
		return f.Supervisor.Start(ctx, foregroundArgv)
	}

	cfg := engine.Config{
		ActivityThreshold: time.Duration(f.Config.Monitor.ActivityThreshold) * time.Second,
		PauseThreshold:    time.Duration(f.Config.Monitor.PauseThreshold) * time.Second,
	}
	machine, err := engine.New(f.Store, cfg, f.Log)
	if err != nil {
		return err
	}
	samp := sampler.New(time.Duration(f.Config.Monitor.PollInterval) * time.Millisecond)
	src := event.NewDefaultSource(time.Duration(f.Config.Monitor.PollInterval) * time.Millisecond)
	return f.Supervisor.RunForeground(ctx, src, samp, machine)
}

// End implements `end`: finalize today's workday immediately.
func (f *Facade) End(ctx context.Context) error {
	cfg := engine.Config{
		ActivityThreshold: time.Duration(f.Config.Monitor.ActivityThreshold) * time.Second,
		PauseThreshold:    time.Duration(f.Config.Monitor.PauseThreshold) * time.Second,
	}
	machine, err := engine.New(f.Store, cfg, f.Log)
	if err != nil {
		return err
	}
	return machine.Finalize(ctx, time.Now())
}

// Report implements `report`: formatting is the CLI layer's job, this
// just returns the data.
func (f *Facade) Report(ctx context.Context, date string) (*report.DailyReport, error) {
	return f.Aggregator.Daily(ctx, date)
}

// MonthlyReport implements `report --month`.
func (f *Facade) MonthlyReport(ctx context.Context, yearMonth string, restDays report.RestDaySource) (*report.MonthlyReport, error) {
	return f.Aggregator.Monthly(ctx, yearMonth, restDays)
}

// Adjust implements `adjust`. Invariant checks inside Aggregator.Adjust
// are never bypassable; `--force` only affects the productivity-threshold
// send gate in Sum.
func (f *Facade) Adjust(ctx context.Context, date string, mode report.Mode, minutes int, insertAt *time.Time) error {
	if minutes < 0 {
		return kaslerr.New("facade.Adjust", kaslerr.InvariantViolation, nil)
	}
	if mode == report.ModeInsertPause {
		p := f.Config.Productivity
		if minutes < p.MinBreakDuration || (p.MaxBreakDuration > 0 && minutes > p.MaxBreakDuration) {
			return kaslerr.New("facade.Adjust", kaslerr.InvariantViolation, nil)
		}
	}
	return f.Aggregator.Adjust(ctx, date, mode, time.Duration(minutes)*time.Minute, insertAt)
}

// Pauses implements `pauses`.
func (f *Facade) Pauses(ctx context.Context, date string, minDuration time.Duration) ([]db.Pause, error) {
	pauses, err := f.Store.Pauses().ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if minDuration <= 0 {
		return pauses, nil
	}
	var out []db.Pause
	for _, p := range pauses {
		if p.Duration != nil && time.Duration(*p.Duration)*time.Second >= minDuration {
			out = append(out, p)
		}
	}
	return out, nil
}

// Sum implements `sum`: monthly aggregate, optionally gated and forwarded
// to a ReportSink. send==true without force checks the
// productivity-threshold gate first.
func (f *Facade) Sum(ctx context.Context, yearMonth string, restDays report.RestDaySource, send, force bool, sink report.ReportSink) (*report.MonthlyReport, error) {
	rep, err := f.Aggregator.Monthly(ctx, yearMonth, restDays)
	if err != nil {
		return nil, err
	}
	if !send {
		return rep, nil
	}
	if !force && rep.Productivity < f.Config.Productivity.MinProductivityThreshold {
		return rep, kaslerr.New("facade.Sum", kaslerr.InvariantViolation, nil)
	}
	if sink == nil {
		return rep, kaslerr.New("facade.Sum", kaslerr.RemoteUnavailable, nil)
	}
	if err := sink.Send(ctx, rep); err != nil {
		return rep, kaslerr.New("facade.Sum", kaslerr.RemoteUnavailable, err)
	}
	return rep, nil
}
