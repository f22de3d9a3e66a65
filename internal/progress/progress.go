// Package progress tracks pipeline completion with monotonic atomic
// counters and fans terminal-transition events out to registered observers.
// Counters only ever grow during a run, so a poller watching /progress sees
// Percent move forward or hold, never backward.
package progress

import (
	"math"
	"sync"
	"sync/atomic"
)

// Snapshot is a point-in-time view of the run.
type Snapshot struct {
	FilesSeen int64 `json:"filesSeen"`
	FilesDone int64 `json:"filesDone"`
	BytesSeen int64 `json:"bytesSeen"`
	BytesDone int64 `json:"bytesDone"`
	Percent   int   `json:"percent"`
}

// OutcomeEvent describes one item reaching a terminal state. Outcome is one
// of "cataloged", "skipped", or "failed"; Kind carries the failure kind
// label and is empty otherwise.
type OutcomeEvent struct {
	Path    string
	Outcome string
	Kind    string
	Bytes   int64
}

// Observer receives progress updates after each terminal transition.
// Implementations must be safe for concurrent calls.
type Observer interface {
	ObserveProgress(s Snapshot)
	ObserveOutcome(e OutcomeEvent)
}

// Tracker accumulates run progress. The zero value is not usable; call
// NewTracker.
type Tracker struct {
	filesSeen atomic.Int64
	filesDone atomic.Int64
	bytesSeen atomic.Int64
	bytesDone atomic.Int64

	mu        sync.RWMutex
	observers []Observer
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Register adds an observer. Register before the run starts; there is no
// unregister.
func (t *Tracker) Register(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// AddSeen records files entering the run, typically once with the full
// enumeration totals.
func (t *Tracker) AddSeen(files, bytes int64) {
	t.filesSeen.Add(files)
	t.bytesSeen.Add(bytes)
}

// MarkDone records one item reaching a terminal state. Call exactly once
// per item regardless of outcome; bytes is the item's source size so that
// completed work is measured against what AddSeen promised.
func (t *Tracker) MarkDone(e OutcomeEvent) {
	t.filesDone.Add(1)
	t.bytesDone.Add(e.Bytes)

	snap := t.Snapshot()
	t.mu.RLock()
	observers := t.observers
	t.mu.RUnlock()
	for _, o := range observers {
		o.ObserveOutcome(e)
		o.ObserveProgress(snap)
	}
}

// Snapshot returns the current counters. With concurrent workers the four
// reads are not a single atomic cut, but each counter is individually
// monotonic so Percent never regresses.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		FilesSeen: t.filesSeen.Load(),
		FilesDone: t.filesDone.Load(),
		BytesSeen: t.bytesSeen.Load(),
		BytesDone: t.bytesDone.Load(),
	}
	if s.BytesSeen > 0 {
		s.Percent = int(math.Round(float64(s.BytesDone) / float64(s.BytesSeen) * 100))
	}
	return s
}
