package service

import (
	"sync"

	"github.com/leadbridge/marketplace/cli/pkg/api"
	"github.com/leadbridge/marketplace/cli/pkg/viewtrack"
)

var (
	tracker     *viewtrack.Tracker
	trackerOnce sync.Once
)

// ViewTracker returns the session-wide view tracker, reporting through the API
func ViewTracker() *viewtrack.Tracker {
	trackerOnce.Do(func() {
		tracker = viewtrack.NewTracker(api.ViewReporter{})
	})
	return tracker
}
