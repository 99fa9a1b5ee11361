package admission

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCheckAndRecordWindowBoundary(t *testing.T) {
	tracker := New(3, 24*time.Hour)

	for i, want := range []int{2, 1, 0} {
		limited, remaining := tracker.CheckAndRecord("x", t0.Add(time.Duration(i)*time.Hour))
		require.False(t, limited, "call %d", i)
		require.Equal(t, want, remaining, "call %d", i)
	}

	limited, remaining := tracker.CheckAndRecord("x", t0.Add(3*time.Hour))
	require.True(t, limited)
	require.Equal(t, 0, remaining)

	// The first entry expires once it is exactly one window old.
	limited, remaining = tracker.CheckAndRecord("x", t0.Add(24*time.Hour+time.Second))
	require.False(t, limited)
	require.Equal(t, 0, remaining)

	used, remaining := tracker.Usage("x", t0.Add(24*time.Hour+time.Second))
	require.Equal(t, 3, used)
	require.Equal(t, 0, remaining)
}

func TestCheckAndRecordExactBoundaryExpires(t *testing.T) {
	tracker := New(1, time.Hour)

	limited, _ := tracker.CheckAndRecord("x", t0)
	require.False(t, limited)

	limited, _ = tracker.CheckAndRecord("x", t0.Add(time.Hour-time.Nanosecond))
	require.True(t, limited)

	limited, remaining := tracker.CheckAndRecord("x", t0.Add(time.Hour))
	require.False(t, limited)
	require.Equal(t, 0, remaining)
}

func TestCheckAndRecordUnseenIdentifier(t *testing.T) {
	tracker := New(5, time.Minute)

	limited, remaining := tracker.CheckAndRecord("fresh", t0)
	assert.False(t, limited)
	assert.Equal(t, 4, remaining)
	assert.Equal(t, 1, tracker.Len())
}

func TestRejectedCallsConsumeNoQuota(t *testing.T) {
	tracker := New(2, time.Hour)

	tracker.CheckAndRecord("x", t0)
	tracker.CheckAndRecord("x", t0.Add(10*time.Minute))
	for i := 0; i < 10; i++ {
		limited, _ := tracker.CheckAndRecord("x", t0.Add(20*time.Minute))
		require.True(t, limited)
	}

	// Only the first admission has aged out; the rejections left no trace.
	limited, remaining := tracker.CheckAndRecord("x", t0.Add(time.Hour))
	require.False(t, limited)
	require.Equal(t, 0, remaining)
}

func TestMonotonicRecovery(t *testing.T) {
	tracker := New(3, 24*time.Hour)
	for i := 0; i < 3; i++ {
		tracker.CheckAndRecord("x", t0.Add(time.Duration(i)*time.Hour))
	}

	limited, _ := tracker.CheckAndRecord("x", t0.Add(12*time.Hour))
	require.True(t, limited)

	var recovered time.Time
	for step := time.Duration(0); step <= 48*time.Hour; step += 30 * time.Minute {
		now := t0.Add(12*time.Hour + step)
		if limited, _ := tracker.CheckAndRecord("x", now); !limited {
			recovered = now
			break
		}
	}
	require.False(t, recovered.IsZero(), "client never recovered")
	require.Equal(t, t0.Add(24*time.Hour), recovered)
}

func TestIdentifiersAreIndependent(t *testing.T) {
	tracker := New(2, time.Hour)

	tracker.CheckAndRecord("a", t0)
	tracker.CheckAndRecord("a", t0)
	limited, _ := tracker.CheckAndRecord("a", t0)
	require.True(t, limited)

	limited, remaining := tracker.CheckAndRecord("b", t0)
	require.False(t, limited)
	require.Equal(t, 1, remaining)

	used, _ := tracker.Usage("a", t0)
	require.Equal(t, 2, used)
}

func TestZeroLimitRejectsEverything(t *testing.T) {
	tracker := New(0, time.Hour)

	limited, remaining := tracker.CheckAndRecord("x", t0)
	require.True(t, limited)
	require.Equal(t, 0, remaining)
}

func TestConcurrentSameIdentifier(t *testing.T) {
	const callers = 200
	tracker := New(3, 24*time.Hour)

	var admitted, rejected atomic.Int64
	var start, done sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if limited, _ := tracker.CheckAndRecord("burst", t0); limited {
				rejected.Add(1)
			} else {
				admitted.Add(1)
			}
		}()
	}
	start.Done()
	done.Wait()

	require.EqualValues(t, 3, admitted.Load())
	require.EqualValues(t, callers-3, rejected.Load())
}

func TestConcurrentFirstTimeIdentifiers(t *testing.T) {
	const clients = 64
	tracker := New(1, time.Hour)

	var wg sync.WaitGroup
	results := make([]bool, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			limited, _ := tracker.CheckAndRecord(fmt.Sprintf("client-%d", i), t0)
			results[i] = limited
		}(i)
	}
	wg.Wait()

	for i, limited := range results {
		assert.False(t, limited, "client-%d", i)
	}
	assert.Equal(t, clients, tracker.Len())
}

func TestWindowNeverExceedsLimit(t *testing.T) {
	const limit = 3
	window := 10 * time.Minute
	tracker := New(limit, window)
	rng := rand.New(rand.NewSource(42))

	admitted := map[string][]time.Time{}
	now := t0
	for i := 0; i < 2000; i++ {
		now = now.Add(time.Duration(rng.Intn(120)) * time.Second)
		id := fmt.Sprintf("c%d", rng.Intn(4))
		if limited, _ := tracker.CheckAndRecord(id, now); !limited {
			admitted[id] = append(admitted[id], now)
		}

		inWindow := 0
		for _, ts := range admitted[id] {
			if now.Sub(ts) < window {
				inWindow++
			}
		}
		require.LessOrEqual(t, inWindow, limit)
	}
}

func TestUsageDoesNotCreateRecords(t *testing.T) {
	tracker := New(3, time.Hour)

	used, remaining := tracker.Usage("ghost", t0)
	assert.Equal(t, 0, used)
	assert.Equal(t, 3, remaining)
	assert.Equal(t, 0, tracker.Len())
}

func TestSweepRemovesOnlyEmptyRecords(t *testing.T) {
	tracker := New(3, time.Hour)
	tracker.CheckAndRecord("old", t0)
	tracker.CheckAndRecord("recent", t0.Add(50*time.Minute))

	removed := tracker.Sweep(t0.Add(time.Hour))
	require.Equal(t, 1, removed)
	require.Equal(t, 1, tracker.Len())

	used, _ := tracker.Usage("recent", t0.Add(time.Hour))
	require.Equal(t, 1, used)

	limited, remaining := tracker.CheckAndRecord("old", t0.Add(time.Hour))
	require.False(t, limited)
	require.Equal(t, 2, remaining)
}

func TestSweepRacingAdmissionsKeepsLimit(t *testing.T) {
	tracker := New(2, time.Hour)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				tracker.Sweep(t0)
			}
		}
	}()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limited, _ := tracker.CheckAndRecord("x", t0); !limited {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	close(stop)

	require.EqualValues(t, 2, admitted.Load())
	used, _ := tracker.Usage("x", t0)
	require.Equal(t, 2, used)
}
