// Package admission tracks per-client usage over a trailing time window and
// decides whether a new action may proceed.
//
// Identifiers are opaque map keys. They are usually derived from a forwarded
// address header, which callers can forge or omit, so the tracker makes no
// claim about who is behind an identifier.
package admission

import (
	"sync"
	"time"
)

// Tracker admits at most Limit actions per identifier within any trailing
// Window. State is in-memory and process-wide; a Tracker is safe for
// concurrent use.
type Tracker struct {
	limit  int
	window time.Duration

	mu      sync.RWMutex
	records map[string]*clientRecord
}

// clientRecord holds the admitted action instants for one identifier.
// The record mutex serializes prune+append for that identifier only.
type clientRecord struct {
	mu         sync.Mutex
	timestamps []time.Time
	// evicted is set by Sweep once the record has left the map. A caller that
	// raced the sweep must look the identifier up again.
	evicted bool
}

// New returns a tracker admitting limit actions per window.
// A limit below one rejects every action.
func New(limit int, window time.Duration) *Tracker {
	if limit < 0 {
		limit = 0
	}
	return &Tracker{
		limit:   limit,
		window:  window,
		records: make(map[string]*clientRecord),
	}
}

// Limit returns the number of actions admitted per window.
func (t *Tracker) Limit() int { return t.limit }

// Window returns the trailing window duration.
func (t *Tracker) Window() time.Duration { return t.window }

// CheckAndRecord decides whether identifier may perform an action at now.
//
// Timestamps at least one window old are dropped first. If the remaining
// count has reached the limit the call reports limited and records nothing,
// so a rejected request consumes no quota. Otherwise now is recorded and the
// number of further actions still permitted in the window is returned.
func (t *Tracker) CheckAndRecord(identifier string, now time.Time) (limited bool, remaining int) {
	for {
		rec := t.lookupOrCreate(identifier)

		rec.mu.Lock()
		if rec.evicted {
			rec.mu.Unlock()
			continue
		}

		rec.prune(now, t.window)
		if len(rec.timestamps) >= t.limit {
			rec.mu.Unlock()
			return true, 0
		}

		rec.timestamps = append(rec.timestamps, now)
		remaining = t.limit - len(rec.timestamps)
		rec.mu.Unlock()
		return false, remaining
	}
}

// Usage reports how many actions identifier has in the window ending at now
// and how many remain. Nothing is recorded and no record is created.
func (t *Tracker) Usage(identifier string, now time.Time) (used, remaining int) {
	t.mu.RLock()
	rec, ok := t.records[identifier]
	t.mu.RUnlock()
	if !ok {
		return 0, t.limit
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.evicted {
		return 0, t.limit
	}

	rec.prune(now, t.window)
	used = len(rec.timestamps)
	remaining = t.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used, remaining
}

// Len returns the number of identifiers currently tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Sweep drops identifiers with no timestamps left in the window ending at now
// and returns how many were removed. Trackers never call it on their own.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, rec := range t.records {
		rec.mu.Lock()
		rec.prune(now, t.window)
		if len(rec.timestamps) == 0 {
			rec.evicted = true
			delete(t.records, id)
			removed++
		}
		rec.mu.Unlock()
	}
	return removed
}

func (t *Tracker) lookupOrCreate(identifier string) *clientRecord {
	t.mu.RLock()
	rec, ok := t.records[identifier]
	t.mu.RUnlock()
	if ok {
		return rec
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok = t.records[identifier]; ok {
		return rec
	}
	rec = &clientRecord{}
	t.records[identifier] = rec
	return rec
}

// prune keeps only instants younger than window. An instant exactly one
// window old is expired.
func (r *clientRecord) prune(now time.Time, window time.Duration) {
	if len(r.timestamps) == 0 {
		return
	}
	kept := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	clear(r.timestamps[len(kept):])
	r.timestamps = kept
}
