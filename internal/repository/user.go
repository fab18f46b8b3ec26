package repository

import (
	"context"
	"errors"

	"devcentral/internal/cache"
	"devcentral/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users and their profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetPasswordHash(ctx context.Context, id uint) (string, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	UpdateProfile(ctx context.Context, user *models.User) error
	List(ctx context.Context, excludeID uint) ([]*models.User, error)
	DeleteCascade(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UsernameKey(username), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", username)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPasswordHash reads the stored credential, which cached users never carry.
func (r *userRepository) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	var hashes []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Pluck("password", &hashes).Error; err != nil {
		return "", models.NewInternalError(err)
	}
	if len(hashes) == 0 {
		return "", models.NewNotFoundError("User", id)
	}
	return hashes[0], nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// CreateWithProfile inserts the user and its single profile atomically.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewFieldValidationError(map[string]string{
				"username": "A user with that username already exists.",
			})
		}
		return models.NewInternalError(err)
	}
	user.Profile = profile
	return nil
}

// UpdateProfile persists the editable profile fields.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	if user.Profile == nil {
		return models.NewValidationError("profile is required")
	}
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{
			"bio":    user.Profile.Bio,
			"avatar": user.Profile.Avatar,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID, user.Username)
	return nil
}

func (r *userRepository) List(ctx context.Context, excludeID uint) ([]*models.User, error) {
	var users []*models.User
	if err := readDB(r.db).WithContext(ctx).
		Preload("Profile").
		Where("id <> ?", excludeID).
		Order("username ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// DeleteCascade removes the user and every row that belongs to them, or to
// their posts, in one transaction. Foreign keys also cascade; the explicit
// deletes keep the counters on other users' posts in step.
func (r *userRepository) DeleteCascade(ctx context.Context, id uint) error {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "username").First(&user, id).Error; err != nil {
			return err
		}

		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)

		// Counters on surviving posts drop by the reactions and shares removed.
		for _, kind := range []models.ReactionKind{models.ReactionLike, models.ReactionDislike} {
			col := kind.CounterColumn()
			if err := tx.Exec(
				"UPDATE posts SET "+col+" = "+col+" - (SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id AND reactions.user_id = ? AND reactions.kind = ?) "+
					"WHERE author_id <> ? AND EXISTS (SELECT 1 FROM reactions WHERE reactions.post_id = posts.id AND reactions.user_id = ? AND reactions.kind = ?)",
				id, kind, id, id, kind,
			).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(
			"UPDATE posts SET shares_count = shares_count - (SELECT COUNT(*) FROM shares WHERE shares.post_id = posts.id AND shares.user_id = ?) "+
				"WHERE author_id <> ? AND EXISTS (SELECT 1 FROM shares WHERE shares.post_id = posts.id AND shares.user_id = ?)",
			id, id, id,
		).Error; err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			query *gorm.DB
		}{
			{&models.Reaction{}, tx.Where("user_id = ? OR post_id IN (?)", id, ownPosts)},
			{&models.Share{}, tx.Where("user_id = ? OR post_id IN (?)", id, ownPosts)},
			{&models.Reply{}, tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts)},
			{&models.Follow{}, tx.Where("follower_id = ? OR following_id = ?", id, id)},
			{&models.CodeSnippet{}, tx.Where("author_id = ?", id)},
			{&models.Post{}, tx.Where("author_id = ?", id)},
			{&models.Profile{}, tx.Where("user_id = ?", id)},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", id)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID, user.Username)
	cache.InvalidatePostCount(ctx)
	return nil
}
