package service

import (
	"context"
	"strings"

	"devcentral/internal/models"
	"devcentral/internal/notifications"
	"devcentral/internal/observability"
	"devcentral/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Post actions accepted by Apply.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
	ActionShare   = "share"
)

// ActionOutcome is what Apply did.
type ActionOutcome string

const (
	ActionAdded   ActionOutcome = "added"
	ActionRemoved ActionOutcome = "removed"
	ActionShared  ActionOutcome = "shared"
	ActionIgnored ActionOutcome = "ignored"
)

// ActionResult reports the outcome and the post's counters afterwards.
type ActionResult struct {
	Action   string                  `json:"action"`
	Outcome  ActionOutcome           `json:"outcome"`
	Counters repository.PostCounters `json:"counters"`
}

// ReactionService is the single entry point for post counter mutations.
type ReactionService struct {
	posts     repository.PostRepository
	reactions repository.ReactionRepository
	events    EventPublisher
}

func NewReactionService(posts repository.PostRepository, reactions repository.ReactionRepository, events EventPublisher) *ReactionService {
	return &ReactionService{posts: posts, reactions: reactions, events: publisherOrNoop(events)}
}

// Apply runs action on postID for actorID. Like and dislike toggle the
// actor's reaction; share appends a share. Unknown actions return ActionIgnored
// without touching storage.
func (s *ReactionService) Apply(ctx context.Context, actorID, postID uint, action string) (_ *ActionResult, err error) {
	action = strings.ToLower(strings.TrimSpace(action))
	result := &ActionResult{Action: action}

	ctx, span := observability.StartSpan(ctx, "post.action",
		attribute.String("post.action", action),
		attribute.Int64("post.id", int64(postID)),
	)
	defer func() {
		if result.Outcome != "" {
			span.SetAttributes(attribute.String("post.outcome", string(result.Outcome)))
		}
		observability.EndSpan(span, err)
	}()

	switch action {
	case ActionLike, ActionDislike:
		active, counters, err := s.reactions.Toggle(ctx, postID, actorID, models.ReactionKind(action))
		if err != nil {
			return nil, err
		}
		result.Counters = counters
		result.Outcome = ActionRemoved
		if active {
			result.Outcome = ActionAdded
		}
	case ActionShare:
		counters, err := s.reactions.AddShare(ctx, postID, actorID)
		if err != nil {
			return nil, err
		}
		result.Counters = counters
		result.Outcome = ActionShared
	default:
		result.Outcome = ActionIgnored
		observability.PostActions.WithLabelValues("unknown", string(result.Outcome)).Inc()
		return result, nil
	}

	observability.PostActions.WithLabelValues(action, string(result.Outcome)).Inc()
	if result.Outcome != ActionRemoved {
		s.notifyAuthor(ctx, actorID, postID, action)
	}
	return result, nil
}

func (s *ReactionService) notifyAuthor(ctx context.Context, actorID, postID uint, action string) {
	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil || post.AuthorID == actorID {
		return
	}
	eventType := notifications.EventReaction
	if action == ActionShare {
		eventType = notifications.EventShare
	}
	s.events.Publish(ctx, post.AuthorID, eventType, map[string]interface{}{
		"post_id":  postID,
		"actor_id": actorID,
		"action":   action,
	})
}
