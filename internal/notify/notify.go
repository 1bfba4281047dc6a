// Package notify publishes best-effort flush notifications over Redis
// pub/sub so external consumers can learn about a new segment without
// polling the segment directory.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlushNotification describes one segment that has just become queryable.
type FlushNotification struct {
	SegmentID   uint64 `json:"segment_id"`
	StartTS     uint64 `json:"start_ts"`
	EndTS       uint64 `json:"end_ts"`
	RecordCount uint64 `json:"record_count"`
}

// Notifier publishes FlushNotifications to a single Redis channel. A nil
// *Notifier is valid and Publish on it is a no-op, so callers can embed one
// unconditionally without a feature-flag branch at every call site.
type Notifier struct {
	client  *redis.Client
	channel string
}

// New returns a Notifier wired to addr/channel, or (nil, nil) when addr is
// empty, meaning flush notification is disabled for this instance.
func New(addr, channel string) (*Notifier, error) {
	if addr == "" {
		return nil, nil
	}
	if channel == "" {
		return nil, fmt.Errorf("notify: channel is required when addr is set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &Notifier{client: client, channel: channel}, nil
}

// Publish sends event to the configured channel. It is best-effort: callers
// should log a returned error at WARN and continue, never fail a flush
// because a notification could not be delivered.
func (n *Notifier) Publish(ctx context.Context, event FlushNotification) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", n.channel, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.client.Close()
}
