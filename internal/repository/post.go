package repository

import (
	"context"

	"ngelmak/internal/cache"
	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CRUDRepository[models.Post]
}

type postRepository struct {
	*crudRepository[models.Post]
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{newCRUDRepository[models.Post](db)}
}

// GetByID loads the post with its live (not soft-deleted) attachments in position order.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Attachments", func(db *gorm.DB) *gorm.DB {
				return db.Where("deleted_at IS NULL").Order("position ASC")
			}).
			First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Save(ctx context.Context, post *models.Post) error {
	if err := r.crudRepository.Save(ctx, post); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PostKey(post.ID))
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.crudRepository.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	return nil
}
