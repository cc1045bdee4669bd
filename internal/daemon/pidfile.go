package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// pidRecord is the textual contents of kasl.pid: the PID, the time Start
// launched it, and the image name it was started under. Liveness checks
// (IsRunning, Stop, removeStalePIDFile) use only PID: they compare the live
// process's image name with the supervisor's own executable name.
// StartedAt and ImageName are written and parsed but not consulted.
type pidRecord struct {
	PID       int
	StartedAt time.Time
	ImageName string
}

func writePIDFile(path string, pid int, startedAt time.Time, imageName string) error {
	body := fmt.Sprintf("%d\n%s\n%s\n", pid, startedAt.Format(time.RFC3339), imageName)
	if err := renameio.WriteFile(path, []byte(body), 0o644); err != nil {
		return kaslerr.New("daemon.writePIDFile", kaslerr.StorageError, err)
	}
	return nil
}

func readPIDFile(path string) (*pidRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kaslerr.New("daemon.readPIDFile", kaslerr.StorageError, err)
	}
	lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 3)
	if len(lines) == 0 || lines[0] == "" {
		return nil, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, nil // corrupt pidfile: treat as stale, not fatal
	}
	rec := &pidRecord{PID: pid}
	if len(lines) > 1 {
		if t, terr := time.Parse(time.RFC3339, strings.TrimSpace(lines[1])); terr == nil {
			rec.StartedAt = t
		}
	}
	if len(lines) > 2 {
		rec.ImageName = strings.TrimSpace(lines[2])
	}
	return rec, nil
}

func removePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return kaslerr.New("daemon.removePIDFile", kaslerr.StorageError, err)
	}
	return nil
}
