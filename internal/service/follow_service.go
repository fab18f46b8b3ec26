package service

import (
	"context"
	"fmt"

	"devcentral/internal/models"
	"devcentral/internal/notifications"
	"devcentral/internal/observability"
	"devcentral/internal/repository"
)

// FollowOutcome describes what a follow or unfollow request did.
type FollowOutcome string

const (
	FollowCreated   FollowOutcome = "followed"
	FollowExisted   FollowOutcome = "already_following"
	FollowSelf      FollowOutcome = "self"
	FollowRemoved   FollowOutcome = "unfollowed"
	FollowNotActive FollowOutcome = "not_following"
)

// FollowResult is the outcome plus the user it applied to.
type FollowResult struct {
	Outcome FollowOutcome
	Target  *models.User
}

// Message is the informational text shown to the actor.
func (r FollowResult) Message() string {
	name := ""
	if r.Target != nil {
		name = r.Target.Username
	}
	switch r.Outcome {
	case FollowCreated:
		return fmt.Sprintf("You are now following %s.", name)
	case FollowExisted:
		return fmt.Sprintf("You already follow %s.", name)
	case FollowSelf:
		return "You cannot follow yourself."
	case FollowRemoved:
		return fmt.Sprintf("You unfollowed %s.", name)
	case FollowNotActive:
		return fmt.Sprintf("You are not following %s.", name)
	default:
		return ""
	}
}

type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	events  EventPublisher
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, events EventPublisher) *FollowService {
	return &FollowService{users: users, follows: follows, events: publisherOrNoop(events)}
}

// Follow adds the edge actorID -> username. Self-follows and repeats change nothing.
func (s *FollowService) Follow(ctx context.Context, actorID uint, username string) (*FollowResult, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	result := &FollowResult{Target: target}

	if target.ID == actorID {
		result.Outcome = FollowSelf
		observability.FollowChanges.WithLabelValues(string(result.Outcome)).Inc()
		return result, nil
	}

	created, err := s.follows.Create(ctx, actorID, target.ID)
	if err != nil {
		return nil, err
	}
	if created {
		result.Outcome = FollowCreated
		s.events.Publish(ctx, target.ID, notifications.EventFollow, map[string]interface{}{
			"follower_id": actorID,
		})
	} else {
		result.Outcome = FollowExisted
	}
	observability.FollowChanges.WithLabelValues(string(result.Outcome)).Inc()
	return result, nil
}

// Unfollow removes the edge actorID -> username if present.
func (s *FollowService) Unfollow(ctx context.Context, actorID uint, username string) (*FollowResult, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	result := &FollowResult{Target: target, Outcome: FollowNotActive}

	if target.ID != actorID {
		removed, err := s.follows.Delete(ctx, actorID, target.ID)
		if err != nil {
			return nil, err
		}
		if removed {
			result.Outcome = FollowRemoved
		}
	}
	observability.FollowChanges.WithLabelValues(string(result.Outcome)).Inc()
	return result, nil
}
