// Package sampler collapses the raw event stream into a fixed-cadence
// tick of "seconds since last activity". It makes no decisions of its
// own.
package sampler

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/lacodda/kasl/internal/event"
)

// Tick is a sampler output: now and the whole seconds elapsed since the
// last recorded activity (rounded down, so activity within the last second
// reads as zero).
type Tick struct {
	Now                time.Time
	SecondsSinceActive float64
}

// Sampler owns the single atomic `last_activity_at` shared between the
// event-source worker (writer) and its own polling loop (reader); it is
// the only cross-thread mutable state in the daemon.
type Sampler struct {
	pollInterval time.Duration
	lastActivity atomic.Int64 // unix nanos
}

// New returns a Sampler polling at pollInterval. It initializes
// last_activity_at to now so the very first tick reports zero seconds
// since activity rather than a huge bogus delta.
func New(pollInterval time.Duration) *Sampler {
	s := &Sampler{pollInterval: pollInterval}
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

// Feed records that activity happened right now. Safe to call from any
// goroutine; called by the event-source worker on every emitted Kind.
func (s *Sampler) Feed(event.Kind) {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Run publishes a Tick on tickCh at the configured cadence until ctx is
// canceled. tickCh is owned by the caller and must have enough buffer (or a
// fast enough consumer) that Run never blocks past the next cadence; a slow
// consumer only delays ticks, it can never corrupt last_activity_at.
func (s *Sampler) Run(ctx context.Context, tickCh chan<- Tick) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			last := time.Unix(0, s.lastActivity.Load())
			sa := math.Floor(now.Sub(last).Seconds())
			if sa < 0 {
				sa = 0
			}
			select {
			case tickCh <- Tick{Now: now, SecondsSinceActive: sa}:
			case <-ctx.Done():
				return
			}
		}
	}
}
