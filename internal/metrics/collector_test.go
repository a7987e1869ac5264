package metrics

import (
	"fmt"
	"testing"
	"time"
)

func TestCollectorRecordsCounters(t *testing.T) {
	c := NewCollector()
	c.RecordLayoutChange()
	c.RecordLayoutChange()
	c.RecordPollError()
	c.RecordFullscreenHide()
	snap := c.Snapshot()
	if snap.Layout.Changes != 2 {
		t.Fatalf("expected 2 layout changes, got %d", snap.Layout.Changes)
	}
	if snap.Layout.PollErrors != 1 || snap.Layout.FullscreenHides != 1 {
		t.Fatalf("unexpected layout counters: %#v", snap.Layout)
	}
	if snap.Layout.LastChanged.IsZero() {
		t.Fatalf("expected last changed timestamp to be recorded")
	}
}

func TestCollectorRecordsSessions(t *testing.T) {
	c := NewCollector()
	c.RecordSession("s1", Converted, 120*time.Millisecond)
	c.RecordSession("s2", Converted, 95*time.Millisecond)
	c.RecordSession("s3", "ambiguous", 40*time.Millisecond)
	snap := c.Snapshot()
	if snap.Totals.Sessions != 3 || snap.Totals.Converted != 2 {
		t.Fatalf("unexpected totals: %#v", snap.Totals)
	}
	if len(snap.Sessions) != 2 {
		t.Fatalf("expected two outcomes in snapshot, got %d", len(snap.Sessions))
	}
	// Outcomes sort alphabetically.
	if snap.Sessions[0].Outcome != "ambiguous" || snap.Sessions[0].Count != 1 {
		t.Fatalf("unexpected first outcome: %#v", snap.Sessions[0])
	}
	if snap.Sessions[1].Outcome != Converted || snap.Sessions[1].Count != 2 {
		t.Fatalf("unexpected second outcome: %#v", snap.Sessions[1])
	}
	if snap.Sessions[1].Last.IsZero() {
		t.Fatalf("expected last timestamp to be recorded")
	}
}

func TestCollectorJournalsRecentSessions(t *testing.T) {
	c := NewCollector()
	c.RecordSession("s1", "ambiguous", 40*time.Millisecond)
	c.RecordSession("s2", Converted, 110*time.Millisecond)
	snap := c.Snapshot()
	if len(snap.Recent) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(snap.Recent))
	}
	if snap.Recent[0].Session != "s1" || snap.Recent[0].Outcome != "ambiguous" {
		t.Fatalf("unexpected first entry: %#v", snap.Recent[0])
	}
	if snap.Recent[1].Session != "s2" || snap.Recent[1].Duration != 110*time.Millisecond {
		t.Fatalf("unexpected second entry: %#v", snap.Recent[1])
	}
	if snap.Recent[0].Time.IsZero() {
		t.Fatalf("expected journal entries to carry timestamps")
	}
}

func TestJournalDropsOldestBeyondLimit(t *testing.T) {
	j := newJournal(3)
	for i := 0; i < 5; i++ {
		j.record(SessionEvent{Session: fmt.Sprintf("s%d", i)})
	}
	got := j.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected journal capped at 3, got %d", len(got))
	}
	if got[0].Session != "s2" || got[2].Session != "s4" {
		t.Fatalf("expected oldest entries dropped, got %#v", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordLayoutChange()
	c.RecordSession("s1", Converted, time.Millisecond)
	if snap := c.Snapshot(); snap.Totals.Sessions != 0 {
		t.Fatalf("expected empty snapshot from nil collector: %#v", snap)
	}
}
