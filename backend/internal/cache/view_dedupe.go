package cache

import (
	"context"
	"fmt"
	"time"
)

// ViewDeduper decides whether a view of a lead by a session should be counted
type ViewDeduper interface {
	// FirstView returns true the first time (leadID, sessionID) is seen within the window
	FirstView(ctx context.Context, leadID, sessionID string) (bool, error)
	// Forget drops the pair so the next view counts again
	Forget(ctx context.Context, leadID, sessionID string) error
}

// RedisViewDeduper remembers (lead, session) pairs in Redis for a fixed window
type RedisViewDeduper struct {
	client *RedisClient
	window time.Duration
}

// NewRedisViewDeduper creates a deduper; window must be positive
func NewRedisViewDeduper(client *RedisClient, window time.Duration) *RedisViewDeduper {
	return &RedisViewDeduper{client: client, window: window}
}

// FirstView implements ViewDeduper. Views without a session are always counted.
func (d *RedisViewDeduper) FirstView(ctx context.Context, leadID, sessionID string) (bool, error) {
	if sessionID == "" {
		return true, nil
	}
	return d.client.SetNX(ctx, viewKey(leadID, sessionID), 1, d.window)
}

// Forget implements ViewDeduper
func (d *RedisViewDeduper) Forget(ctx context.Context, leadID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return d.client.Del(ctx, viewKey(leadID, sessionID))
}

func viewKey(leadID, sessionID string) string {
	return fmt.Sprintf("lead_view:%s:%s", leadID, sessionID)
}
