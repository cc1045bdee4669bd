package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Monitor.PauseThreshold = 120
	cfg.Productivity.MinProductivityThreshold = 75

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestValidateRejectsNegativeDurations(t *testing.T) {
	cfg := Default()
	cfg.Monitor.ActivityThreshold = -1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeProductivityThreshold(t *testing.T) {
	cfg := Default()
	cfg.Productivity.MinProductivityThreshold = 150
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedBreakBounds(t *testing.T) {
	cfg := Default()
	cfg.Productivity.MinBreakDuration = 30
	cfg.Productivity.MaxBreakDuration = 10
	require.Error(t, cfg.Validate())
}
