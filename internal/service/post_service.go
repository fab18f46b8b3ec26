package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"devcentral/internal/models"
	"devcentral/internal/repository"
)

type PostService struct {
	posts repository.PostRepository
	media *MediaService
}

// PostInput is the create and edit form. On edit a nil Image keeps the
// current one unless ClearImage is set.
type PostInput struct {
	Body       string
	Image      *Upload
	ClearImage bool
}

func NewPostService(posts repository.PostRepository, media *MediaService) *PostService {
	return &PostService{posts: posts, media: media}
}

func validatePostBody(body string) map[string]string {
	fields := map[string]string{}
	if utf8.RuneCountInString(body) > models.MaxPostBodyLength {
		fields["body"] = "Ensure this value has at most 1000 characters."
	}
	return fields
}

// Create stores a post by actorID. A body or an image is required.
func (s *PostService) Create(ctx context.Context, actorID uint, in PostInput) (*models.Post, error) {
	body := strings.TrimSpace(in.Body)
	fields := validatePostBody(body)
	if body == "" && in.Image == nil {
		fields["body"] = "Write something or attach an image."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	post := &models.Post{AuthorID: actorID, Body: body}
	if in.Image != nil {
		rel, err := s.storeImage(actorID, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.media.Remove(post.Image)
		}
		return nil, err
	}
	return post, nil
}

// Get returns a post for the edit form. Only the author may load it.
func (s *PostService) Get(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	return s.owned(ctx, actorID, postID)
}

// Update edits body and image. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actorID, postID uint, in PostInput) (*models.Post, error) {
	post, err := s.owned(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(in.Body)
	fields := validatePostBody(body)
	keepsImage := post.Image != "" && !in.ClearImage
	if body == "" && in.Image == nil && !keepsImage {
		fields["body"] = "Write something or attach an image."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	previous := post.Image
	post.Body = body
	switch {
	case in.Image != nil:
		rel, err := s.storeImage(actorID, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if previous != "" && previous != post.Image {
		s.media.Remove(previous)
	}
	return post, nil
}

// Delete removes a post and everything attached to it. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	post, err := s.owned(ctx, actorID, postID)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	if post.Image != "" {
		s.media.Remove(post.Image)
	}
	return nil
}

func (s *PostService) owned(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, models.NewForbiddenError("You can only change your own posts.")
	}
	return post, nil
}

func (s *PostService) storeImage(authorID uint, in Upload) (string, error) {
	img, err := s.media.Process(MediaPosts, "image", in)
	if err != nil {
		return "", err
	}
	return s.media.Save(authorID, img)
}
