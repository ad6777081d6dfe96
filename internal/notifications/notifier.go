// Package notifications delivers domain events to connected users over Redis pub/sub and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Domain event types.
const (
	EventPostCreated       = "post.created"
	EventPostUpdated       = "post.updated"
	EventMembershipCreated = "membership.created"
	EventReviewCreated     = "review.created"
)

const userChannelPrefix = "notifications:user:"

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Notifier publishes events into per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishEvent wraps payload in an Event and sends it to each user once.
// Zero user ids are skipped.
func (n *Notifier) PublishEvent(ctx context.Context, eventType string, payload any, userIDs ...uint) error {
	if n == nil || n.rdb == nil || len(userIDs) == 0 {
		return nil
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	seen := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		if err := n.PublishUser(ctx, id, string(data)); err != nil {
			return fmt.Errorf("publish %s to user %d: %w", eventType, id, err)
		}
	}
	observability.EventsPublished.WithLabelValues(eventType).Inc()
	return nil
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user id from a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
