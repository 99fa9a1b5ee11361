package simulate

import (
	"fmt"
	"time"

	"github.com/pixelgate/pixelgate/internal/core/admission"
)

// Decision records the outcome of one replayed request.
type Decision struct {
	Seq       int           `json:"seq"`
	Client    string        `json:"client"`
	Offset    time.Duration `json:"offset"`
	At        time.Time     `json:"at"`
	Admitted  bool          `json:"admitted"`
	Remaining int           `json:"remaining"`
}

// Result summarizes a replay.
type Result struct {
	Limit     int           `json:"limit"`
	Window    time.Duration `json:"window"`
	Requests  int           `json:"requests"`
	Admitted  int           `json:"admitted"`
	Rejected  int           `json:"rejected"`
	Clients   int           `json:"clients"`
	Decisions []Decision    `json:"decisions"`
}

// Policy overrides the trace's own limit and window when set.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Run replays trace through a fresh tracker. Policy values win over the
// trace; the trace values win over defaults.
func Run(trace *Trace, policy Policy, defaults Policy) (*Result, error) {
	if trace == nil {
		return nil, fmt.Errorf("nil trace")
	}

	limit := firstPositive(policy.Limit, trace.Limit, defaults.Limit)
	window := policy.Window
	if window <= 0 {
		window = trace.Window
	}
	if window <= 0 {
		window = defaults.Window
	}
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("limit and window must be positive (limit=%d window=%s)", limit, window)
	}

	tracker := admission.New(limit, window)
	result := &Result{Limit: limit, Window: window}

	for _, ev := range trace.Events {
		at := trace.Start.Add(ev.At)
		for i := 0; i < ev.Repeat; i++ {
			limited, remaining := tracker.CheckAndRecord(ev.Client, at)
			result.Requests++
			if limited {
				result.Rejected++
			} else {
				result.Admitted++
			}
			result.Decisions = append(result.Decisions, Decision{
				Seq:       result.Requests,
				Client:    ev.Client,
				Offset:    ev.At,
				At:        at,
				Admitted:  !limited,
				Remaining: remaining,
			})
		}
	}
	result.Clients = tracker.Len()

	return result, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
