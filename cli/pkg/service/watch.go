package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/leadbridge/marketplace/cli/pkg/logger"
	"github.com/leadbridge/marketplace/cli/pkg/viewtrack"
)

// WatchSession replays visibility events against a tracker, one observer per lead.
//
// Input lines:
//
//	<lead-id> <ratio>   visible fraction of the lead's card, 0..1
//	hide <lead-id>      the card was unmounted
//	reset               start a new tracking session
//
// Blank lines and lines starting with # are ignored.
type WatchSession struct {
	tracker   *viewtrack.Tracker
	cfg       viewtrack.ObserverConfig
	observers map[string]*viewtrack.Observer
	events    int
}

// NewWatchSession creates a session feeding tracker
func NewWatchSession(tracker *viewtrack.Tracker, cfg viewtrack.ObserverConfig) *WatchSession {
	return &WatchSession{
		tracker:   tracker,
		cfg:       cfg,
		observers: make(map[string]*viewtrack.Observer),
	}
}

// Apply handles one input line
func (s *WatchSession) Apply(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && fields[0] == "reset":
		s.tracker.Reset()
	case len(fields) == 2 && fields[0] == "hide":
		if obs, ok := s.observers[fields[1]]; ok {
			obs.Close()
			delete(s.observers, fields[1])
		}
	case len(fields) == 2:
		ratio, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("invalid visible fraction %q: %w", fields[1], err)
		}
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("visible fraction %v out of range [0,1]", ratio)
		}
		s.observer(fields[0]).Observe(ratio)
	default:
		return fmt.Errorf("unrecognized event %q", line)
	}

	s.events++
	return nil
}

func (s *WatchSession) observer(leadID string) *viewtrack.Observer {
	obs, ok := s.observers[leadID]
	if !ok {
		obs = viewtrack.NewObserver(s.tracker, leadID, s.cfg)
		s.observers[leadID] = obs
	}
	return obs
}

// Run applies every line of r. Malformed lines are logged and skipped.
func (s *WatchSession) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		if err := s.Apply(scanner.Text()); err != nil {
			logger.Warn("Skipping visibility event", "line", lineNo, "error", err)
		}
	}
	return scanner.Err()
}

// Drain waits for armed timers to fire and for in-flight reports to finish,
// then detaches every observer.
func (s *WatchSession) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for s.tracker.PendingCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	s.tracker.Wait()

	for id, obs := range s.observers {
		obs.Close()
		delete(s.observers, id)
	}
	return nil
}

// Events returns the number of events applied so far
func (s *WatchSession) Events() int {
	return s.events
}
