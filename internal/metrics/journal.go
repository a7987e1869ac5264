package metrics

import (
	"sync"
	"time"
)

// SessionEvent is one finished conversion session as kept in the
// recent-session journal.
type SessionEvent struct {
	Time     time.Time     `json:"time"`
	Session  string        `json:"session"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

const journalLimit = 32

// journal is a bounded ring of the most recent session events. The oldest
// entry is dropped once the limit is reached.
type journal struct {
	mu      sync.Mutex
	entries []SessionEvent
	limit   int
}

func newJournal(limit int) *journal {
	if limit <= 0 {
		limit = journalLimit
	}
	return &journal{limit: limit}
}

func (j *journal) record(entry SessionEvent) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.limit > 0 && len(j.entries) == j.limit {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:j.limit-1]
	}
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() []SessionEvent {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == 0 {
		return nil
	}
	out := make([]SessionEvent, len(j.entries))
	copy(out, j.entries)
	return out
}
