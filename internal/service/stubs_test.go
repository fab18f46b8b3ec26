package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"devcentral/internal/models"
	"devcentral/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	getPasswordHashFn   func(context.Context, uint) (string, error)
	usernameTakenFn     func(context.Context, string) (bool, error)
	createWithProfileFn func(context.Context, *models.User, *models.Profile) error
	updateProfileFn     func(context.Context, *models.User) error
	listFn              func(context.Context, uint) ([]*models.User, error)
	deleteCascadeFn     func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	return s.getPasswordHashFn(ctx, id)
}
func (s *userRepoStub) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.usernameTakenFn(ctx, username)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.createWithProfileFn(ctx, user, profile)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, excludeID uint) ([]*models.User, error) {
	return s.listFn(ctx, excludeID)
}
func (s *userRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:   func(_ context.Context, name string) (*models.User, error) { return &models.User{ID: 1, Username: name}, nil },
		getPasswordHashFn: func(_ context.Context, _ uint) (string, error) { return "", nil },
		usernameTakenFn:   func(_ context.Context, _ string) (bool, error) { return false, nil },
		createWithProfileFn: func(_ context.Context, u *models.User, p *models.Profile) error {
			u.ID = 1
			p.UserID = 1
			u.Profile = p
			return nil
		},
		updateProfileFn: func(_ context.Context, _ *models.User) error { return nil },
		listFn:          func(_ context.Context, _ uint) ([]*models.User, error) { return nil, nil },
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	followingIDsFn   func(context.Context, uint) ([]uint, error)
	followedAmongFn  func(context.Context, uint, []uint) (map[uint]bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, a, b uint) (bool, error) { return s.createFn(ctx, a, b) }
func (s *followRepoStub) Delete(ctx context.Context, a, b uint) (bool, error) { return s.deleteFn(ctx, a, b) }
func (s *followRepoStub) Exists(ctx context.Context, a, b uint) (bool, error) { return s.existsFn(ctx, a, b) }
func (s *followRepoStub) FollowingIDs(ctx context.Context, id uint) ([]uint, error) {
	return s.followingIDsFn(ctx, id)
}
func (s *followRepoStub) FollowedAmong(ctx context.Context, id uint, ids []uint) (map[uint]bool, error) {
	return s.followedAmongFn(ctx, id, ids)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, id uint) (int64, error) {
	return s.countFollowersFn(ctx, id)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, id uint) (int64, error) {
	return s.countFollowingFn(ctx, id)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		deleteFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followingIDsFn:   func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		followedAmongFn:  func(_ context.Context, _ uint, _ []uint) (map[uint]bool, error) { return map[uint]bool{}, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint, uint) (*models.Post, error)
	listByAuthorsFn func(context.Context, []uint, uint) ([]*models.Post, error)
	listFn          func(context.Context, int, int, uint) ([]*models.Post, error)
	countFn         func(context.Context) (int64, error)
	updateFn        func(context.Context, *models.Post) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) ListByAuthors(ctx context.Context, authorIDs []uint, viewerID uint) ([]*models.Post, error) {
	return s.listByAuthorsFn(ctx, authorIDs, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, viewerID)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) { return s.countFn(ctx) }
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listByAuthorsFn: func(_ context.Context, _ []uint, _ uint) ([]*models.Post, error) { return nil, nil },
		listFn:          func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		countFn:         func(_ context.Context) (int64, error) { return 0, nil },
		updateFn:        func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// replyRepoStub is a stub for repository.ReplyRepository.
type replyRepoStub struct {
	createFn        func(context.Context, *models.Reply) error
	listByPostIDsFn func(context.Context, []uint) ([]*models.Reply, error)
}

func (s *replyRepoStub) Create(ctx context.Context, r *models.Reply) error { return s.createFn(ctx, r) }
func (s *replyRepoStub) ListByPostIDs(ctx context.Context, ids []uint) ([]*models.Reply, error) {
	return s.listByPostIDsFn(ctx, ids)
}

func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		createFn:        func(_ context.Context, _ *models.Reply) error { return nil },
		listByPostIDsFn: func(_ context.Context, _ []uint) ([]*models.Reply, error) { return nil, nil },
	}
}

// reactionRepoStub is a stub for repository.ReactionRepository.
type reactionRepoStub struct {
	toggleFn   func(context.Context, uint, uint, models.ReactionKind) (bool, repository.PostCounters, error)
	addShareFn func(context.Context, uint, uint) (repository.PostCounters, error)
}

func (s *reactionRepoStub) Toggle(ctx context.Context, postID, userID uint, kind models.ReactionKind) (bool, repository.PostCounters, error) {
	return s.toggleFn(ctx, postID, userID, kind)
}
func (s *reactionRepoStub) AddShare(ctx context.Context, postID, userID uint) (repository.PostCounters, error) {
	return s.addShareFn(ctx, postID, userID)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	UserID  uint
	Type    string
	Payload map[string]interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, eventType string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
