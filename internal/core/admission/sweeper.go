package admission

import (
	"context"
	"time"
)

// SweepFunc receives the outcome of each periodic sweep.
type SweepFunc func(evicted, tracked int)

// RunSweeper calls Sweep every interval until ctx is done. It blocks, so
// callers run it in its own goroutine. A non-positive interval returns at once.
func (t *Tracker) RunSweeper(ctx context.Context, interval time.Duration, clock func() time.Time, report SweepFunc) {
	if interval <= 0 {
		return
	}
	if clock == nil {
		clock = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := t.Sweep(clock())
			if report != nil {
				report(evicted, t.Len())
			}
		}
	}
}
