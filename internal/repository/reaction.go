package repository

import (
	"context"
	"errors"

	"devcentral/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostCounters is a snapshot of a post's denormalized counts.
type PostCounters struct {
	LikesCount    int `json:"likes_count"`
	DislikesCount int `json:"dislikes_count"`
	SharesCount   int `json:"shares_count"`
}

// ReactionRepository writes reactions and shares together with the post counters
// that mirror them.
type ReactionRepository interface {
	Toggle(ctx context.Context, postID, userID uint, kind models.ReactionKind) (bool, PostCounters, error)
	AddShare(ctx context.Context, postID, userID uint) (PostCounters, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Toggle removes the viewer's reaction of kind if present, otherwise adds it.
// It reports whether the reaction is active afterwards.
func (r *reactionRepository) Toggle(ctx context.Context, postID, userID uint, kind models.ReactionKind) (bool, PostCounters, error) {
	if !kind.Valid() {
		return false, PostCounters{}, models.NewValidationError("unknown reaction kind")
	}

	var (
		active   bool
		counters PostCounters
	)
	col := kind.CounterColumn()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}

		removed := tx.Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).Delete(&models.Reaction{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).
				Where("id = ? AND "+col+" > 0", postID).
				UpdateColumn(col, gorm.Expr(col+" - 1")).Error; err != nil {
				return err
			}
		} else {
			added := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Reaction{
				PostID: postID,
				UserID: userID,
				Kind:   kind,
			})
			if added.Error != nil {
				return added.Error
			}
			if added.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).
					Where("id = ?", postID).
					UpdateColumn(col, gorm.Expr(col+" + 1")).Error; err != nil {
					return err
				}
			}
			active = true
		}

		var err error
		counters, err = readCounters(tx, postID)
		return err
	})
	if err != nil {
		return false, PostCounters{}, wrapCounterError(err, postID)
	}
	return active, counters, nil
}

// AddShare appends a share and bumps shares_count in the same transaction.
func (r *reactionRepository) AddShare(ctx context.Context, postID, userID uint) (PostCounters, error) {
	var counters PostCounters
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		if err := tx.Create(&models.Share{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("shares_count", gorm.Expr("shares_count + 1")).Error; err != nil {
			return err
		}
		var err error
		counters, err = readCounters(tx, postID)
		return err
	})
	if err != nil {
		return PostCounters{}, wrapCounterError(err, postID)
	}
	return counters, nil
}

func ensurePost(tx *gorm.DB, postID uint) error {
	var ids []uint
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func readCounters(tx *gorm.DB, postID uint) (PostCounters, error) {
	var counters PostCounters
	err := tx.Model(&models.Post{}).
		Select("likes_count", "dislikes_count", "shares_count").
		Where("id = ?", postID).
		Take(&counters).Error
	return counters, err
}

func wrapCounterError(err error, postID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Post", postID)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
