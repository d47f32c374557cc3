package viewtrack

import (
	"math"
	"sync"
	"time"
)

// ObserverConfig holds the visibility settings for one observed element
type ObserverConfig struct {
	Threshold float64       // Visible fraction in [0,1] that counts as seen
	Delay     time.Duration // Debounce window for the reporting call
	Immediate bool          // Report without debounce (detail views)
}

// DefaultObserverConfig returns the list/card view settings
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{
		Threshold: DefaultThreshold,
		Delay:     DefaultDelay,
	}
}

// Observer binds one rendered element, identified by its lead id, to a Tracker.
// The UI feeds it visible-fraction updates; the observer fires the tracking
// pipeline each time the fraction crosses up to or above the threshold.
type Observer struct {
	tracker *Tracker
	cfg     ObserverConfig

	mu      sync.Mutex
	leadID  string
	visible bool
	closed  bool
}

// NewObserver attaches an observer for leadID. An empty leadID yields an
// observer that ignores every update.
func NewObserver(tracker *Tracker, leadID string, cfg ObserverConfig) *Observer {
	if math.IsNaN(cfg.Threshold) || cfg.Threshold < 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}

	return &Observer{
		tracker: tracker,
		cfg:     cfg,
		leadID:  leadID,
	}
}

// Observe records the element's current visible fraction
func (o *Observer) Observe(ratio float64) {
	o.mu.Lock()
	if o.closed || o.leadID == "" {
		o.mu.Unlock()
		return
	}

	// a zero ratio is never intersecting, even with a zero threshold
	nowVisible := ratio > 0 && ratio >= o.cfg.Threshold
	crossed := nowVisible && !o.visible
	o.visible = nowVisible
	leadID := o.leadID
	o.mu.Unlock()

	if !crossed {
		return
	}

	if o.cfg.Immediate {
		o.tracker.MarkViewedAsync(leadID)
		return
	}
	o.tracker.Track(leadID, o.cfg.Delay)
}

// SetLeadID rebinds the observer to another lead. The old lead's pending timer
// is cancelled and the element is treated as not yet visible.
func (o *Observer) SetLeadID(leadID string) {
	o.mu.Lock()
	old := o.leadID
	o.leadID = leadID
	o.visible = false
	o.mu.Unlock()

	if old != "" && old != leadID {
		o.tracker.Cancel(old)
	}
}

// LeadID returns the lead currently bound to the observer
func (o *Observer) LeadID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.leadID
}

// Close detaches the observer and cancels its lead's pending timer
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	leadID := o.leadID
	o.mu.Unlock()

	if leadID != "" {
		o.tracker.Cancel(leadID)
	}
}
