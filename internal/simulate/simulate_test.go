package simulate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundaryTrace = `
start: 2025-01-01T00:00:00Z
limit: 3
window: 24h
events:
  - client: a
    at: 0s
  - client: a
    at: 1h
  - client: a
    at: 2h
  - client: a
    at: 3h
  - client: b
    at: 3h
  - client: a
    at: 24h1s
`

func TestParseOrdersEventsAndDefaultsRepeat(t *testing.T) {
	trace, err := Parse([]byte(`
events:
  - client: late
    at: 2h
  - client: " early "
    at: 30m
    repeat: 2
`))
	require.NoError(t, err)
	require.Len(t, trace.Events, 2)
	assert.Equal(t, "early", trace.Events[0].Client)
	assert.Equal(t, 30*time.Minute, trace.Events[0].At)
	assert.Equal(t, 2, trace.Events[0].Repeat)
	assert.Equal(t, 1, trace.Events[1].Repeat)
	assert.False(t, trace.Start.IsZero())
}

func TestParseRejectsBadTraces(t *testing.T) {
	cases := map[string]string{
		"no events":      "start: 2025-01-01T00:00:00Z\n",
		"missing client": "events:\n  - at: 1s\n",
		"negative at":    "events:\n  - client: a\n    at: -1s\n",
		"bad yaml":       "events: [",
		"negative limit": "limit: -1\nevents:\n  - client: a\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestRunReplaysSlidingWindow(t *testing.T) {
	trace, err := Parse([]byte(boundaryTrace))
	require.NoError(t, err)

	result, err := Run(trace, Policy{}, Policy{Limit: 10, Window: time.Hour})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Limit)
	assert.Equal(t, 24*time.Hour, result.Window)
	assert.Equal(t, 6, result.Requests)
	assert.Equal(t, 4+1, result.Admitted)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.Clients)

	var got []bool
	for _, d := range result.Decisions {
		got = append(got, d.Admitted)
	}
	assert.Equal(t, []bool{true, true, true, false, true, true}, got)

	last := result.Decisions[len(result.Decisions)-1]
	assert.Equal(t, "a", last.Client)
	assert.Equal(t, 0, last.Remaining)
}

func TestRunPolicyOverridesTrace(t *testing.T) {
	trace, err := Parse([]byte(boundaryTrace))
	require.NoError(t, err)

	result, err := Run(trace, Policy{Limit: 1, Window: time.Minute}, Policy{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Limit)
	assert.Equal(t, 0, result.Rejected, "every request for a is more than a minute apart")
}

func TestRunRequiresPolicy(t *testing.T) {
	trace, err := Parse([]byte("events:\n  - client: a\n"))
	require.NoError(t, err)

	_, err = Run(trace, Policy{}, Policy{})
	assert.Error(t, err)

	_, err = Run(nil, Policy{Limit: 1, Window: time.Hour}, Policy{})
	assert.Error(t, err)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(boundaryTrace), 0o600))

	trace, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, trace.Events, 6)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
