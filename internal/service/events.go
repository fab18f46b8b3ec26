// Package service holds the application's business logic between handlers and repositories.
package service

import "context"

// EventPublisher delivers realtime events to a single user.
// *notifications.Notifier satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, userID uint, eventType string, payload map[string]interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, uint, string, map[string]interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
