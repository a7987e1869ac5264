package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates runtime counters for layout polling and conversion
// sessions, plus a short journal of recent sessions.
type Collector struct {
	mu       sync.RWMutex
	started  time.Time
	layout   LayoutMetrics
	sessions map[string]*SessionMetrics
	recent   *journal
}

// LayoutMetrics captures counters for the foreground poll loop.
type LayoutMetrics struct {
	Changes         uint64    `json:"changes"`
	PollErrors      uint64    `json:"pollErrors"`
	FullscreenHides uint64    `json:"fullscreenHides"`
	LastChanged     time.Time `json:"lastChanged,omitempty"`
}

// SessionMetrics captures per-outcome counters for conversion sessions.
type SessionMetrics struct {
	Outcome string    `json:"outcome"`
	Count   uint64    `json:"count"`
	Last    time.Time `json:"last,omitempty"`
}

// Totals aggregates session counters across outcomes.
type Totals struct {
	Sessions  uint64 `json:"sessions"`
	Converted uint64 `json:"converted"`
}

// Snapshot is the serializable view of the current metrics state.
type Snapshot struct {
	Started  time.Time        `json:"started,omitempty"`
	Layout   LayoutMetrics    `json:"layout"`
	Sessions []SessionMetrics `json:"sessions,omitempty"`
	Totals   Totals           `json:"totals"`
	Recent   []SessionEvent   `json:"recent,omitempty"`
}

// Converted is the session outcome recorded for a completed conversion.
// Abort outcomes are free-form reason strings supplied by the caller.
const Converted = "converted"

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		sessions: make(map[string]*SessionMetrics),
		recent:   newJournal(journalLimit),
	}
}

// RecordLayoutChange increments the layout transition counter.
func (c *Collector) RecordLayoutChange() {
	c.update(func(now time.Time) {
		c.layout.Changes++
		c.layout.LastChanged = now
	})
}

// RecordPollError increments the skipped-tick counter.
func (c *Collector) RecordPollError() {
	c.update(func(time.Time) { c.layout.PollErrors++ })
}

// RecordFullscreenHide increments the fullscreen suppression counter.
func (c *Collector) RecordFullscreenHide() {
	c.update(func(time.Time) { c.layout.FullscreenHides++ })
}

// RecordSession increments the counter for a session outcome and appends
// the event to the recent-session journal.
func (c *Collector) RecordSession(session, outcome string, took time.Duration) {
	c.update(func(now time.Time) {
		if c.sessions == nil {
			c.sessions = make(map[string]*SessionMetrics)
		}
		s, exists := c.sessions[outcome]
		if !exists {
			s = &SessionMetrics{Outcome: outcome}
			c.sessions[outcome] = s
		}
		s.Count++
		s.Last = now
		c.recent.record(SessionEvent{Time: now, Session: session, Outcome: outcome, Duration: took})
	})
}

func (c *Collector) update(mutate func(time.Time)) {
	if c == nil || mutate == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(now)
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Started: c.started, Layout: c.layout}
	if len(c.sessions) == 0 {
		return snap
	}
	snap.Sessions = make([]SessionMetrics, 0, len(c.sessions))
	for _, s := range c.sessions {
		if s == nil {
			continue
		}
		clone := *s
		snap.Sessions = append(snap.Sessions, clone)
		snap.Totals.Sessions += clone.Count
		if clone.Outcome == Converted {
			snap.Totals.Converted += clone.Count
		}
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].Outcome < snap.Sessions[j].Outcome
	})
	snap.Recent = c.recent.snapshot()
	return snap
}
