// Package daemon owns the lifecycle of the sampler and state-machine
// workers, enforces single-instance execution via a PID file, and handles
// start/stop/is-running for the CLI layer.
package daemon

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/google/uuid"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/lacodda/kasl/internal/engine"
	"github.com/lacodda/kasl/internal/event"
	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/logger"
	"github.com/lacodda/kasl/internal/sampler"
)

// gracePeriod is how long Stop waits for a graceful exit before escalating
// to forceKill.
const gracePeriod = 5 * time.Second

// Paths bundles the well-known file locations under the user's data
// directory.
type Paths struct {
	PIDFile string
	LogFile string
}

// Supervisor owns PID-file enforcement and the foreground worker lifecycle.
type Supervisor struct {
	paths     Paths
	log       *logger.Logger
	imageName string
}

func New(paths Paths, log *logger.Logger) *Supervisor {
	name := "kasl"
	if exe, err := os.Executable(); err == nil {
		name = filepath.Base(exe)
	}
	return &Supervisor{paths: paths, log: log, imageName: name}
}

// IsRunning reports whether a live kasl daemon currently owns the PID file.
func (s *Supervisor) IsRunning() (bool, error) {
	rec, err := readPIDFile(s.paths.PIDFile)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return processAlive(rec.PID, s.imageName), nil
}

// Start re-execs the current binary in foreground-daemon mode, detached
// into its own process group, with stdio redirected to the log file. If an
// instance is already running, Start stops it first so upgrades leave
// exactly one daemon running.
func (s *Supervisor) Start(ctx context.Context, foregroundArgv []string) error {
	running, err := s.IsRunning()
	if err != nil {
		return err
	}
	if running {
		s.log.Info("instance already running, restarting")
		if err := s.Stop(ctx); err != nil {
			return err
		}
	} else if err := removeStalePIDFile(s.paths.PIDFile, s.imageName); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return kaslerr.New("daemon.Start", kaslerr.StorageError, err)
	}

	logFile, err := os.OpenFile(s.paths.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return kaslerr.New("daemon.Start", kaslerr.StorageError, err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, foregroundArgv...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return kaslerr.New("daemon.Start", kaslerr.StorageError, err)
	}
	if err := writePIDFile(s.paths.PIDFile, cmd.Process.Pid, time.Now(), s.imageName); err != nil {
		return err
	}
	s.log.Info("daemon started", "pid", cmd.Process.Pid)
	return nil
}

// removeStalePIDFile deletes a PID file whose PID is not a live process
// with a matching image name.
func removeStalePIDFile(path, imageName string) error {
	rec, err := readPIDFile(path)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if processAlive(rec.PID, imageName) {
		return kaslerr.New("daemon.Start", kaslerr.AlreadyRunning, nil)
	}
	return removePIDFile(path)
}

// Stop reads the PID file, sends a graceful-termination signal, polls for
// up to gracePeriod, force-kills if necessary, and removes the PID file
// only once the process is confirmed gone.
func (s *Supervisor) Stop(ctx context.Context) error {
	rec, err := readPIDFile(s.paths.PIDFile)
	if err != nil {
		return err
	}
	if rec == nil || !processAlive(rec.PID, s.imageName) {
		return removePIDFile(s.paths.PIDFile)
	}

	if err := terminate(rec.PID); err != nil {
		return kaslerr.New("daemon.Stop", kaslerr.StorageError, err)
	}

	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(rec.PID, s.imageName) {
			return removePIDFile(s.paths.PIDFile)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	if err := forceKill(rec.PID); err != nil {
		return kaslerr.New("daemon.Stop", kaslerr.StorageError, err)
	}
	return removePIDFile(s.paths.PIDFile)
}

// RunForeground wires an event source, sampler, and state machine
// together and blocks until ctx is canceled or a termination
// signal/console-close event arrives, at which point it drives a synthetic
// finalize tick and returns. This is the body of `watch --foreground` and
// of the re-exec'd background process Start spawns.
func (s *Supervisor) RunForeground(ctx context.Context, src event.Source, samp *sampler.Sampler, machine *engine.Machine) error {
	runID := uuid.NewString()
	s.log.Info("foreground run starting", "run_id", runID)

	if _, err := memlimit.SetGoMemLimitWithOpts(); err != nil {
		s.log.Warn("automemlimit: no cgroup limit detected", "err", err)
	}
	if undo, err := maxprocs.Set(maxprocs.Logger(func(fmt string, args ...any) { s.log.Debug(fmt, args...) })); err != nil {
		s.log.Warn("automaxprocs: failed to set GOMAXPROCS", "err", err)
	} else {
		defer undo()
	}

	ctx, stop := signal.NotifyContext(ctx, terminationSignals()...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	tickCh := make(chan sampler.Tick, 8)

	g.Go(func() error {
		if err := src.Run(gctx, samp.Feed); err != nil {
			return kaslerr.New("daemon.RunForeground", kaslerr.HookFailure, err)
		}
		return nil
	})
	g.Go(func() error {
		samp.Run(gctx, tickCh)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case tick := <-tickCh:
				if err := machine.Handle(context.Background(), tick); err != nil {
					return kaslerr.New("daemon.RunForeground", kaslerr.StorageError, err)
				}
			}
		}
	})

	err := g.Wait()

	finalizeCtx, cancel := context.WithTimeout(context.Background(), gracePeriod)
	defer cancel()
	if ferr := machine.Finalize(finalizeCtx, time.Now()); ferr != nil && !kaslerr.Is(ferr, kaslerr.NoOpenWorkday) {
		s.log.Error("finalize on shutdown failed", "err", ferr)
	}

	return err
}

// DefaultPaths returns the standard kasl.pid/kasl.log locations under dir
// (the caller resolves dir to the platform user-data directory; that
// resolution itself is an excluded CLI concern).
func DefaultPaths(dir string) Paths {
	return Paths{
		PIDFile: filepath.Join(dir, "kasl.pid"),
		LogFile: filepath.Join(dir, "kasl.log"),
	}
}
