package ingest

import (
	"sync"
	"time"
)

// State is the loop's position within a cycle.
type State int

const (
	Idle State = iota
	Fetching
	Parsing
	Persisting
	Aggregating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Parsing:
		return "parsing"
	case Persisting:
		return "persisting"
	case Aggregating:
		return "aggregating"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of the loop for diagnostics.
type Status struct {
	State               string    `json:"state"`
	Cycles              uint64    `json:"cycles"`
	LastCycle           time.Time `json:"last_cycle,omitempty"`
	LastFetchOK         time.Time `json:"last_fetch_ok,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_fetch_failures"`
}

type statusTracker struct {
	mu                  sync.Mutex
	state               State
	cycles              uint64
	lastCycle           time.Time
	lastFetchOK         time.Time
	consecutiveFailures int
}

func (t *statusTracker) set(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *statusTracker) fetched(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.consecutiveFailures = 0
		t.lastFetchOK = time.Now()
		return
	}
	t.consecutiveFailures++
}

func (t *statusTracker) completed(at time.Time) {
	t.mu.Lock()
	t.cycles++
	t.lastCycle = at
	t.mu.Unlock()
}

// Status reports the loop's current state and counters.
func (l *Loop) Status() Status {
	t := &l.status
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		State:               t.state.String(),
		Cycles:              t.cycles,
		LastCycle:           t.lastCycle,
		LastFetchOK:         t.lastFetchOK,
		ConsecutiveFailures: t.consecutiveFailures,
	}
}
