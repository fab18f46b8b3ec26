package repository

import (
	"context"
	"errors"

	"devcentral/internal/cache"
	"devcentral/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, viewerID uint) ([]*models.Post, error)
	List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostCount(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := r.withViewer(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Author.Profile").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListByAuthors returns every post written by one of authorIDs, newest first.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, viewerID uint) ([]*models.Post, error) {
	posts := []*models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := r.withViewer(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Author.Profile").
		Where("posts.author_id IN ?", authorIDs).
		Order("posts.created_at DESC, posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.withViewer(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Author.Profile").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Count returns the number of posts, cached briefly for explore pagination.
func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := cache.Aside(ctx, cache.PostCountKey, &total, cache.PostCountTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return total, err
}

// Update writes the editable columns only; counters are never touched here.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("body", "image", "updated_at").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePostCount(ctx)
	return nil
}

// withViewer selects the viewer's like and dislike flags alongside each post.
func (r *postRepository) withViewer(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Select("posts.*, 1 = 0 AS liked, 1 = 0 AS disliked")
	}
	return db.Select(
		"posts.*, "+
			"EXISTS(SELECT 1 FROM reactions WHERE reactions.post_id = posts.id AND reactions.user_id = ? AND reactions.kind = ?) AS liked, "+
			"EXISTS(SELECT 1 FROM reactions WHERE reactions.post_id = posts.id AND reactions.user_id = ? AND reactions.kind = ?) AS disliked",
		viewerID, models.ReactionLike, viewerID, models.ReactionDislike,
	)
}
