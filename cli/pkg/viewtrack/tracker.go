// Package viewtrack counts lead views from the client side.
//
// A Tracker remembers which leads were already reported during the current
// session, coalesces bursts of visibility triggers per lead into a single
// delayed report, and rolls its state back on failure so a later trigger can
// retry. Reports are best-effort: failures are logged and counted, never
// returned to the caller.
package viewtrack

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leadbridge/marketplace/cli/pkg/logger"
)

const (
	// DefaultDelay is the debounce window used when none is given
	DefaultDelay = time.Second
	// DefaultThreshold is the visible fraction an element must reach to count as viewed
	DefaultThreshold = 0.5
)

// pendingView is an armed debounce timer for one lead.
// gen identifies the arming so a timer that fired after being replaced does nothing.
type pendingView struct {
	timer *time.Timer
	gen   uint64
}

// Stats is a snapshot of tracker activity
type Stats struct {
	Reported int64 `json:"reported"`
	Failed   int64 `json:"failed"`
	Skipped  int64 `json:"skipped"`
	Pending  int   `json:"pending"`
	InFlight int   `json:"in_flight"`
	Viewed   int   `json:"viewed"`
}

// Tracker holds the session view set and the pending timer map
type Tracker struct {
	reporter Reporter

	mu       sync.Mutex
	viewed   map[string]struct{}
	pending  map[string]*pendingView
	inFlight map[string]struct{}
	gen      uint64

	wg sync.WaitGroup

	reported atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
}

// NewTracker creates an empty tracker that reports through reporter
func NewTracker(reporter Reporter) *Tracker {
	return &Tracker{
		reporter: reporter,
		viewed:   make(map[string]struct{}),
		pending:  make(map[string]*pendingView),
		inFlight: make(map[string]struct{}),
	}
}

// Track is the debounced path. It (re)arms a timer for leadID; when the timer
// fires without being replaced the view is reported once.
func (t *Tracker) Track(leadID string, delay time.Duration) {
	if leadID == "" {
		return
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.settledLocked(leadID) {
		t.skipped.Add(1)
		return
	}

	if p, ok := t.pending[leadID]; ok {
		p.timer.Stop()
	}

	t.gen++
	gen := t.gen
	p := &pendingView{gen: gen}
	p.timer = time.AfterFunc(delay, func() {
		t.fire(leadID, gen)
	})
	t.pending[leadID] = p

	logger.Debug("View scheduled", "lead_id", leadID, "delay", delay)
}

// MarkViewed is the immediate path used by detail views. It reports synchronously
// and swallows failures; a pending debounced report for the same lead is dropped.
func (t *Tracker) MarkViewed(ctx context.Context, leadID string) {
	if !t.begin(leadID) {
		return
	}
	defer t.wg.Done()
	t.report(ctx, leadID)
}

// MarkViewedAsync is MarkViewed without waiting for the report. The lead is
// in flight by the time it returns, so Wait covers the report.
func (t *Tracker) MarkViewedAsync(leadID string) {
	if !t.begin(leadID) {
		return
	}
	go func() {
		defer t.wg.Done()
		t.report(context.Background(), leadID)
	}()
}

// begin moves leadID to the in-flight set for an immediate report.
// It returns false when no report is needed.
func (t *Tracker) begin(leadID string) bool {
	if leadID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.settledLocked(leadID) {
		t.skipped.Add(1)
		return false
	}
	t.cancelLocked(leadID)
	t.inFlight[leadID] = struct{}{}
	t.wg.Add(1)
	return true
}

// Cancel stops the pending timer for leadID, if any. Leads already viewed stay
// viewed and a report already in flight is not interrupted.
func (t *Tracker) Cancel(leadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(leadID)
}

// Reset forgets every viewed lead and cancels every pending timer
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.pending {
		p.timer.Stop()
	}
	t.pending = make(map[string]*pendingView)
	t.viewed = make(map[string]struct{})

	logger.Debug("View tracker reset")
}

// Viewed reports whether leadID was successfully reported this session
func (t *Tracker) Viewed(leadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.viewed[leadID]
	return ok
}

// Pending reports whether a debounce timer is armed for leadID
func (t *Tracker) Pending(leadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[leadID]
	return ok
}

// PendingCount returns the number of armed debounce timers
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Wait blocks until every report that has already started has finished.
// Timers that have not fired yet are not waited for.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Stats returns a snapshot of the tracker counters
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Reported: t.reported.Load(),
		Failed:   t.failed.Load(),
		Skipped:  t.skipped.Load(),
		Pending:  len(t.pending),
		InFlight: len(t.inFlight),
		Viewed:   len(t.viewed),
	}
}

// settledLocked reports whether leadID needs no further report right now (must hold lock)
func (t *Tracker) settledLocked(leadID string) bool {
	if _, ok := t.viewed[leadID]; ok {
		return true
	}
	_, ok := t.inFlight[leadID]
	return ok
}

// cancelLocked stops and forgets the pending timer for leadID (must hold lock)
func (t *Tracker) cancelLocked(leadID string) {
	if p, ok := t.pending[leadID]; ok {
		p.timer.Stop()
		delete(t.pending, leadID)
	}
}

// fire runs when a debounce timer expires
func (t *Tracker) fire(leadID string, gen uint64) {
	t.mu.Lock()
	p, ok := t.pending[leadID]
	if !ok || p.gen != gen {
		// replaced, cancelled or reset after the timer had already fired
		t.mu.Unlock()
		return
	}
	delete(t.pending, leadID)
	if t.settledLocked(leadID) {
		t.mu.Unlock()
		return
	}
	t.inFlight[leadID] = struct{}{}
	t.wg.Add(1)
	t.mu.Unlock()

	defer t.wg.Done()
	t.report(context.Background(), leadID)
}

// report performs the network call and settles the lead's state. The caller
// must have put leadID in the in-flight set.
func (t *Tracker) report(ctx context.Context, leadID string) {
	err := t.reporter.ReportView(ctx, leadID)

	t.mu.Lock()
	delete(t.inFlight, leadID)
	if err == nil {
		t.viewed[leadID] = struct{}{}
	}
	t.mu.Unlock()

	if err != nil {
		t.failed.Add(1)
		logger.Warn("Failed to report lead view", "lead_id", leadID, "error", err)
		return
	}

	t.reported.Add(1)
	logger.Debug("Lead view reported", "lead_id", leadID)
}
