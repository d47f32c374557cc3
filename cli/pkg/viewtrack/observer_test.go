package viewtrack

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverThresholdGating(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		ratio     float64
		reported  bool
	}{
		{"below threshold", 0.5, 0.49, false},
		{"at threshold", 0.5, 0.5, true},
		{"above threshold", 0.5, 0.8, true},
		{"fully visible with full threshold", 1, 1, true},
		{"zero threshold needs intersection", 0, 0, false},
		{"zero threshold with any pixel", 0, 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newFakeReporter()
			tr := NewTracker(rep)
			obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: tt.threshold, Delay: testDelay})

			obs.Observe(tt.ratio)
			settle(t, tr)

			if tt.reported {
				assert.Equal(t, 1, rep.count("lead-1"))
			} else {
				assert.Equal(t, 0, rep.count("lead-1"))
			}
		})
	}
}

func TestObserverDefaults(t *testing.T) {
	tr := NewTracker(newFakeReporter())

	for _, threshold := range []float64{-0.1, 1.5, math.NaN()} {
		obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: threshold})
		assert.Equal(t, DefaultThreshold, obs.cfg.Threshold)
		assert.Equal(t, DefaultDelay, obs.cfg.Delay)
	}

	cfg := DefaultObserverConfig()
	assert.Equal(t, 0.5, cfg.Threshold)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.False(t, cfg.Immediate)
}

func TestObserverFiresOnCrossingOnly(t *testing.T) {
	rep := newFakeReporter()
	rep.setFail("lead-1", true)
	tr := NewTracker(rep)
	obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})

	obs.Observe(0.6)
	settle(t, tr)
	require.Equal(t, 1, rep.count("lead-1"))

	// still visible: no new crossing, no retry
	obs.Observe(0.7)
	obs.Observe(0.9)
	settle(t, tr)
	assert.Equal(t, 1, rep.count("lead-1"))

	obs.Observe(0.1)
	obs.Observe(0.6)
	settle(t, tr)
	assert.Equal(t, 2, rep.count("lead-1"))
}

func TestObserverEmptyLeadIDSkipsObservation(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)
	obs := NewObserver(tr, "", DefaultObserverConfig())

	obs.Observe(1)
	assert.Equal(t, 0, tr.PendingCount())
	obs.Close()
}

func TestObserverCloseCancelsPendingTimer(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)
	obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})

	obs.Observe(0.8)
	require.True(t, tr.Pending("lead-1"))

	obs.Close()
	assert.False(t, tr.Pending("lead-1"))

	obs.Observe(0)
	obs.Observe(0.8)
	time.Sleep(2 * testDelay)
	tr.Wait()
	assert.Equal(t, 0, rep.count("lead-1"), "closed observer must not trigger reports")
}

func TestObserverCloseKeepsViewedLead(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)
	obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})

	obs.Observe(0.8)
	settle(t, tr)
	obs.Close()

	assert.True(t, tr.Viewed("lead-1"))
}

func TestObserverSetLeadIDCancelsOldLead(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)
	obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})

	obs.Observe(0.8)
	require.True(t, tr.Pending("lead-1"))

	obs.SetLeadID("lead-2")
	assert.False(t, tr.Pending("lead-1"))
	assert.Equal(t, "lead-2", obs.LeadID())

	// the rebound element counts as newly visible
	obs.Observe(0.8)
	settle(t, tr)
	assert.Equal(t, 0, rep.count("lead-1"))
	assert.Equal(t, 1, rep.count("lead-2"))
}

func TestObserversShareStatePerLead(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)

	// the same lead rendered in two carousels
	first := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})
	second := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Delay: testDelay})

	first.Observe(0.7)
	second.Observe(0.9)
	settle(t, tr)

	first.Observe(0)
	first.Observe(1)
	second.Observe(0)
	second.Observe(1)
	settle(t, tr)

	assert.Equal(t, 1, rep.count("lead-1"))
}

func TestObserverImmediateMode(t *testing.T) {
	rep := newFakeReporter()
	tr := NewTracker(rep)
	obs := NewObserver(tr, "lead-1", ObserverConfig{Threshold: 0.5, Immediate: true})

	obs.Observe(1)

	assert.Eventually(t, func() bool { return tr.Viewed("lead-1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, tr.PendingCount())
	assert.Equal(t, 1, rep.count("lead-1"))
}
