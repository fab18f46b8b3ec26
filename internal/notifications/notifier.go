// Package notifications provides real-time notification delivery over Redis and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"devcentral/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Event types pushed to users.
const (
	EventFollow   = "follow"
	EventReply    = "reply"
	EventReaction = "reaction"
	EventShare    = "share"
)

// Event is the JSON envelope written to websocket clients.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// UserChannel is the Redis channel carrying events for userID.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userChannelPrefix, userID)
}

// Notifier publishes events into Redis channels. Without Redis it hands
// payloads to the local fallback, if one is set.
type Notifier struct {
	rdb      *redis.Client
	fallback func(userID uint, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// SetFallback sets the in-process delivery used when Redis is not configured.
func (n *Notifier) SetFallback(deliver func(userID uint, payload string)) {
	n.fallback = deliver
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		if n.fallback != nil {
			n.fallback(userID, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Publish encodes an event and sends it to userID. Failures are logged, never returned:
// realtime delivery must not fail the write that triggered it.
func (n *Notifier) Publish(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) {
	if n == nil || userID == 0 {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "marshal notification", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := n.PublishUser(ctx, userID, string(data)); err != nil {
		middleware.Logger.WarnContext(ctx, "publish notification",
			slog.Uint64("target_user_id", uint64(userID)),
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

// StartPatternSubscriber subscribes to `notifications:user:*` and calls onMessage
// for each incoming message until ctx is done.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
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
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

func parseUserChannel(channel string) (uint, bool) {
	if !strings.HasPrefix(channel, userChannelPrefix) {
		return 0, false
	}
	var userID uint
	if _, err := fmt.Sscanf(channel, userChannelPrefix+"%d", &userID); err != nil || userID == 0 {
		return 0, false
	}
	return userID, true
}
