//go:build windows

package daemon

import (
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/windows"
)

// processAlive opens the process by PID and compares its image name
// against want. OpenProcess succeeding alone isn't enough: a crash
// followed by the OS recycling pid for an unrelated process would
// otherwise make Start wrongly report AlreadyRunning, and Stop would
// signal/kill a process this daemon never started.
func processAlive(pid int, want string) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil || code != windows.STILL_ACTIVE {
		return false
	}

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		// Name lookup failed: fall back to the liveness probe alone
		// rather than wrongly reporting dead.
		return true
	}
	got := filepath.Base(windows.UTF16ToString(buf[:size]))
	return got == want
}

// terminate on Windows has no graceful SIGTERM equivalent reachable from
// os.Process.Signal; callers rely on the grace-period poll in Stop and
// escalate straight to forceKill if the process ignores console events.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	// Signal supports only os.Kill on Windows and errors for os.Interrupt;
	// that error is not a failed stop, so Stop goes on to its poll.
	_ = proc.Signal(os.Interrupt)
	return nil
}

func forceKill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// terminationSignals are the platform termination signals and console-close
// events the daemon registers handlers for.
func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
