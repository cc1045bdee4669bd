//go:build linux || darwin

package event

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// ttyIdleStat returns the controlling terminal's access time, which the
// kernel bumps on every read from it — the same coarse signal `w`/`who -u`
// report in their IDLE column.
func ttyIdleStat() (time.Time, bool) {
	var st unix.Stat_t
	if err := unix.Stat("/dev/tty", &st); err != nil {
		return time.Time{}, false
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec), true
}

// NewDefaultSource returns the best-effort Unix idle poller. A true global
// input hook on X11/evdev/Quartz needs platform handles this module does
// not pull in (the core's scope is the state machine, not a hook library);
// the default here polls the controlling terminal's access time via
// golang.org/x/sys/unix and emits a generic KeyDown whenever it advances.
// daemon.Supervisor is free to substitute any other event.Source — a
// FuncSource wrapping a real hook library, or a test double that calls
// emit directly.
func NewDefaultSource(pollEvery time.Duration) Source {
	return FuncSource(func(ctx context.Context, emit func(Kind)) error {
		last, haveLast := ttyIdleStat()
		ticker := time.NewTicker(pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				t, ok := ttyIdleStat()
				if !ok {
					continue
				}
				if !haveLast || t.After(last) {
					last = t
					haveLast = true
					emit(KeyDown)
				}
			}
		}
	})
}
