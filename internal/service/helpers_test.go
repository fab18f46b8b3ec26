package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"devcentral/internal/config"
	"devcentral/internal/models"
	"devcentral/internal/repository"
	"devcentral/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stack wires real repositories over a private SQLite database.
type stack struct {
	db        *gorm.DB
	users     repository.UserRepository
	follows   repository.FollowRepository
	posts     repository.PostRepository
	replies   repository.ReplyRepository
	reactions repository.ReactionRepository
	snippets  repository.SnippetRepository
	media     *MediaService
	events    *recordingPublisher
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &stack{
		db:        db,
		users:     repository.NewUserRepository(db),
		follows:   repository.NewFollowRepository(db),
		posts:     repository.NewPostRepository(db),
		replies:   repository.NewReplyRepository(db),
		reactions: repository.NewReactionRepository(db),
		snippets:  repository.NewSnippetRepository(db),
		media:     NewMediaService(&config.Config{MediaDir: t.TempDir(), ImageMaxUploadSizeMB: 1}),
		events:    &recordingPublisher{},
	}
}

func (s *stack) accounts() *AccountService {
	return NewAccountService(s.users, s.follows, s.media)
}

func (s *stack) timeline() *TimelineService {
	return NewTimelineService(s.posts, s.replies, s.follows, nil, s.media)
}

func (s *stack) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := s.accounts().Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password1: "correct-horse",
		Password2: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func (s *stack) post(t *testing.T, authorID uint, body string) *models.Post {
	t.Helper()
	post, err := NewPostService(s.posts, s.media).Create(context.Background(), authorID, PostInput{Body: body})
	require.NoError(t, err)
	return post
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
