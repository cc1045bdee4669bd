package kaslerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesKind(t *testing.T) {
	err := New("store.Open", StorageError, errors.New("disk full"))
	require.True(t, Is(err, StorageError))
	require.False(t, Is(err, MigrationFailure))
}

func TestIsUnwrapsThroughFmtWrap(t *testing.T) {
	inner := New("report.Adjust", InvariantViolation, nil)
	wrapped := fmt.Errorf("adjust failed: %w", inner)
	require.True(t, Is(wrapped, InvariantViolation))
}

func TestErrorStringIncludesOpAndKind(t *testing.T) {
	err := New("db.Open", StorageError, errors.New("disk full"))
	require.Contains(t, err.Error(), "db.Open")
	require.Contains(t, err.Error(), "StorageError")
	require.Contains(t, err.Error(), "disk full")
}
