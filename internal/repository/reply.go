package repository

import (
	"context"

	"devcentral/internal/models"

	"gorm.io/gorm"
)

// ReplyRepository defines interface for reply operations
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	ListByPostIDs(ctx context.Context, postIDs []uint) ([]*models.Reply, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post").Create(reply).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByPostIDs loads the replies of every post in one query, oldest first.
func (r *replyRepository) ListByPostIDs(ctx context.Context, postIDs []uint) ([]*models.Reply, error) {
	replies := []*models.Reply{}
	if len(postIDs) == 0 {
		return replies, nil
	}
	err := readDB(r.db).WithContext(ctx).
		Preload("Author.Profile").
		Where("post_id IN ?", postIDs).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}
