package repository

import (
	"context"
	"time"

	"ngelmak/internal/cache"
	"ngelmak/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttachmentRepository defines the interface for attachment data operations
type AttachmentRepository interface {
	CRUDRepository[models.Attachment]
	SaveAll(ctx context.Context, attachments []*models.Attachment) error
	DeleteAll(ctx context.Context, attachments []*models.Attachment) error
	FindByIDs(ctx context.Context, ids []uint) ([]*models.Attachment, error)
	FindByPostID(ctx context.Context, postID uint) ([]*models.Attachment, error)
	FindDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Attachment, error)
}

type attachmentRepository struct {
	*crudRepository[models.Attachment]
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{newCRUDRepository[models.Attachment](db)}
}

func (r *attachmentRepository) Save(ctx context.Context, attachment *models.Attachment) error {
	if err := r.crudRepository.Save(ctx, attachment); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PostKey(attachment.PostID))
	return nil
}

// SaveAll inserts new attachments and updates existing ones in a single transaction.
func (r *attachmentRepository) SaveAll(ctx context.Context, attachments []*models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range attachments {
			if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidatePosts(ctx, attachments)
	return nil
}

// DeleteAll removes the rows of attachments permanently.
func (r *attachmentRepository) DeleteAll(ctx context.Context, attachments []*models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(attachments))
	for _, a := range attachments {
		ids = append(ids, a.ID)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Attachment{}, ids).Error; err != nil {
		return err
	}
	r.invalidatePosts(ctx, attachments)
	return nil
}

func (r *attachmentRepository) FindByIDs(ctx context.Context, ids []uint) ([]*models.Attachment, error) {
	var attachments []*models.Attachment
	if len(ids) == 0 {
		return attachments, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&attachments).Error
	return attachments, err
}

// FindByPostID lists every attachment of a post, soft-deleted ones included.
func (r *attachmentRepository) FindByPostID(ctx context.Context, postID uint) ([]*models.Attachment, error) {
	var attachments []*models.Attachment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("position ASC, id ASC").Find(&attachments).Error
	return attachments, err
}

// FindDeletedBefore lists soft-deleted attachments whose deletion is older than cutoff.
func (r *attachmentRepository) FindDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Attachment, error) {
	var attachments []*models.Attachment
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Limit(limit).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	var postIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Attachment{}).Where("id = ?", id).Pluck("post_id", &postIDs).Error; err != nil {
		return err
	}
	if err := r.crudRepository.Delete(ctx, id); err != nil {
		return err
	}
	for _, postID := range postIDs {
		cache.Invalidate(ctx, cache.PostKey(postID))
	}
	return nil
}

func (r *attachmentRepository) invalidatePosts(ctx context.Context, attachments []*models.Attachment) {
	seen := make(map[uint]bool)
	keys := make([]string, 0, 1)
	for _, a := range attachments {
		if a.PostID != 0 && !seen[a.PostID] {
			seen[a.PostID] = true
			keys = append(keys, cache.PostKey(a.PostID))
		}
	}
	cache.Invalidate(ctx, keys...)
}
