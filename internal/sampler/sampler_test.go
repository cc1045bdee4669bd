package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lacodda/kasl/internal/event"
)

func TestRunEmitsZeroSinceActiveRightAfterFeed(t *testing.T) {
	s := New(20 * time.Millisecond)
	s.Feed(event.KeyDown)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tickCh := make(chan Tick, 4)
	go s.Run(ctx, tickCh)

	select {
	case tick := <-tickCh:
		require.InDelta(t, 0, tick.SecondsSinceActive, 0.05)
	case <-ctx.Done():
		t.Fatal("no tick received")
	}
}

func TestRunReportsGrowingIdleTime(t *testing.T) {
	s := New(20 * time.Millisecond)
	s.lastActivity.Store(time.Now().Add(-time.Second).UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tickCh := make(chan Tick, 4)
	go s.Run(ctx, tickCh)

	select {
	case tick := <-tickCh:
		require.Greater(t, tick.SecondsSinceActive, 0.5)
	case <-ctx.Done():
		t.Fatal("no tick received")
	}
}
