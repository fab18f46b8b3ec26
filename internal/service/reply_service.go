package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"devcentral/internal/models"
	"devcentral/internal/notifications"
	"devcentral/internal/repository"
)

type ReplyService struct {
	posts   repository.PostRepository
	replies repository.ReplyRepository
	events  EventPublisher
}

func NewReplyService(posts repository.PostRepository, replies repository.ReplyRepository, events EventPublisher) *ReplyService {
	return &ReplyService{posts: posts, replies: replies, events: publisherOrNoop(events)}
}

// Create adds a reply by actorID to postID.
func (s *ReplyService) Create(ctx context.Context, actorID, postID uint, body string) (*models.Reply, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return nil, models.NewFieldValidationError(map[string]string{"body": "This field is required."})
	case utf8.RuneCountInString(body) > models.MaxReplyBodyLength:
		return nil, models.NewFieldValidationError(map[string]string{"body": "Ensure this value has at most 500 characters."})
	}

	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{PostID: post.ID, AuthorID: actorID, Body: body}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}

	if post.AuthorID != actorID {
		s.events.Publish(ctx, post.AuthorID, notifications.EventReply, map[string]interface{}{
			"post_id":  post.ID,
			"reply_id": reply.ID,
			"actor_id": actorID,
		})
	}
	return reply, nil
}
