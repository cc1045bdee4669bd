//go:build windows

package event

import (
	"context"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetLastInputInfo = user32.NewProc("GetLastInputInfo")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// readIdleTicks returns the system tick count of the last input event, or
// ok=false if the platform call failed.
func readIdleTicks() (uint32, bool) {
	var lii lastInputInfo
	lii.cbSize = uint32(8)
	r, _, _ := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&lii)))
	if r == 0 {
		return 0, false
	}
	return lii.dwTime, true
}

// NewDefaultSource returns the Windows idle-time poller. It reports any
// tick-count advance as a generic KeyDown event: the state machine only
// cares that activity happened, never which kind.
func NewDefaultSource(pollEvery time.Duration) Source {
	return FuncSource(func(ctx context.Context, emit func(Kind)) error {
		var last uint32
		ticker := time.NewTicker(pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				t, ok := readIdleTicks()
				if !ok {
					continue
				}
				if t != last {
					last = t
					emit(KeyDown)
				}
			}
		}
	})
}
