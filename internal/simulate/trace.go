// Package simulate replays recorded or hand-written request traces through an
// admission tracker so operators can preview a limit/window policy.
package simulate

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Trace is a timeline of requests. Offsets are relative to Start.
//
//	start: 2025-01-01T00:00:00Z
//	limit: 3
//	window: 24h
//	events:
//	  - client: 203.0.113.7
//	    at: 0s
//	  - client: 203.0.113.7
//	    at: 1h
//	    repeat: 3
type Trace struct {
	Start  time.Time     `yaml:"start"`
	Limit  int           `yaml:"limit,omitempty"`
	Window time.Duration `yaml:"window,omitempty"`
	Events []Event       `yaml:"events"`
}

// Event is one or more requests from Client at Start+At.
type Event struct {
	Client string        `yaml:"client"`
	At     time.Duration `yaml:"at"`
	Repeat int           `yaml:"repeat,omitempty"`
}

// Load reads and validates a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML trace and orders its events by offset.
func Parse(data []byte) (*Trace, error) {
	var trace Trace
	if err := yaml.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("parse trace: %w", err)
	}

	if len(trace.Events) == 0 {
		return nil, fmt.Errorf("trace has no events")
	}
	if trace.Limit < 0 {
		return nil, fmt.Errorf("trace limit must not be negative")
	}
	if trace.Window < 0 {
		return nil, fmt.Errorf("trace window must not be negative")
	}
	if trace.Start.IsZero() {
		trace.Start = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	for i := range trace.Events {
		ev := &trace.Events[i]
		ev.Client = strings.TrimSpace(ev.Client)
		if ev.Client == "" {
			return nil, fmt.Errorf("event %d: client is required", i)
		}
		if ev.At < 0 {
			return nil, fmt.Errorf("event %d: negative offset %s", i, ev.At)
		}
		if ev.Repeat < 0 {
			return nil, fmt.Errorf("event %d: negative repeat", i)
		}
		if ev.Repeat == 0 {
			ev.Repeat = 1
		}
	}

	sort.SliceStable(trace.Events, func(i, j int) bool {
		return trace.Events[i].At < trace.Events[j].At
	})

	return &trace, nil
}
