package repository

import (
	"context"
	"errors"

	"devcentral/internal/models"

	"gorm.io/gorm"
)

// SnippetRepository defines persistence operations for code snippets.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *models.CodeSnippet) error
	GetByID(ctx context.Context, id uint) (*models.CodeSnippet, error)
	List(ctx context.Context) ([]*models.CodeSnippet, error)
	Delete(ctx context.Context, id uint) error
}

type snippetRepository struct {
	db *gorm.DB
}

// NewSnippetRepository creates a new SnippetRepository
func NewSnippetRepository(db *gorm.DB) SnippetRepository {
	return &snippetRepository{db: db}
}

func (r *snippetRepository) Create(ctx context.Context, snippet *models.CodeSnippet) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(snippet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *snippetRepository) GetByID(ctx context.Context, id uint) (*models.CodeSnippet, error) {
	var snippet models.CodeSnippet
	if err := readDB(r.db).WithContext(ctx).Preload("Author").First(&snippet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Snippet", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &snippet, nil
}

func (r *snippetRepository) List(ctx context.Context) ([]*models.CodeSnippet, error) {
	snippets := []*models.CodeSnippet{}
	if err := readDB(r.db).WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&snippets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return snippets, nil
}

func (r *snippetRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CodeSnippet{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Snippet", id)
	}
	return nil
}
