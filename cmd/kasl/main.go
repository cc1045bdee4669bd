// Command kasl is the CLI front end over the facade package. Everything
// that isn't tracking, reporting, or adjusting a workday lives elsewhere.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lacodda/kasl/internal/config"
	"github.com/lacodda/kasl/internal/daemon"
	"github.com/lacodda/kasl/internal/db"
	"github.com/lacodda/kasl/internal/facade"
	"github.com/lacodda/kasl/internal/kaslerr"
	"github.com/lacodda/kasl/internal/logger"
	"github.com/lacodda/kasl/internal/report"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kasl",
		Short:         "Personal work-activity tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newWatchCmd(),
		newEndCmd(),
		newReportCmd(),
		newAdjustCmd(),
		newPausesCmd(),
		newSumCmd(),
	)
	return cmd
}

// exitCodeFor maps a returned error's kind to the process exit code the
// caller sees.
func exitCodeFor(err error) int {
	errColor.Fprintln(os.Stderr, err.Error())
	switch {
	case kaslerr.Is(err, kaslerr.AlreadyRunning):
		return 2
	case kaslerr.Is(err, kaslerr.HookFailure):
		return 3
	case kaslerr.Is(err, kaslerr.StorageError), kaslerr.Is(err, kaslerr.MigrationFailure):
		return 4
	case kaslerr.Is(err, kaslerr.NoOpenWorkday):
		return 5
	case kaslerr.Is(err, kaslerr.InvariantViolation):
		return 6
	default:
		return 1
	}
}

// dataDir resolves the platform user-data directory kasl.* lives under.
func dataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "kasl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// buildFacade opens the store, loads config, and wires a facade.Facade for
// a single command invocation.
func buildFacade() (*facade.Facade, func(), error) {
	dir, err := dataDir()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, nil, err
	}

	store, err := db.Open(filepath.Join(dir, "kasl.db"))
	if err != nil {
		return nil, nil, err
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "kasl.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	log := logger.New(logFile, "kasl", logger.LevelInfo)

	paths := daemon.DefaultPaths(dir)
	sup := daemon.New(paths, log)

	agg := report.New(store, time.Duration(cfg.Monitor.MinWorkInterval)*time.Minute)

	f := &facade.Facade{Store: store, Supervisor: sup, Aggregator: agg, Config: cfg, Log: log}
	cleanup := func() {
		store.Close()
		logFile.Close()
	}
	return f, cleanup, nil
}

func printReport(rep *report.DailyReport) {
	fmt.Printf("Date: %s\n", rep.Date)
	fmt.Printf("Gross: %s  Net: %s  Productivity: %.1f%%\n", rep.Gross, rep.Net, rep.Productivity)
	if rep.FilteredCount > 0 {
		warnColor.Printf("(%d short interval(s) totalling %s filtered from display)\n", rep.FilteredCount, rep.FilteredTotalDuration)
	}
	for _, iv := range rep.Intervals {
		fmt.Printf("  %s - %s\n", iv.Start.Format("15:04:05"), iv.End.Format("15:04:05"))
	}
}

func ctxBackground() context.Context { return context.Background() }
