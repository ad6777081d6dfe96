package service

import (
	"context"
	"errors"
	"time"

	"ngelmak/internal/featureflags"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/notifications"
	"ngelmak/internal/observability"
	"ngelmak/internal/repository"
	"ngelmak/internal/storage"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type PostService struct {
	crudService[models.Post]
	posts       repository.PostRepository
	accounts    repository.AccountRepository
	memberships repository.MembershipRepository
	attachments *AttachmentService
	storage     storage.Storage
	dir         string
	events      events
	now         func() time.Time
}

func NewPostService(
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	memberships repository.MembershipRepository,
	attachments *AttachmentService,
	publisher EventPublisher,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		crudService: crudService[models.Post]{repo: posts, entity: EntityPost},
		posts:       posts,
		accounts:    accounts,
		memberships: memberships,
		attachments: attachments,
		storage:     attachments.storage,
		dir:         attachments.dir,
		events:      events{publisher: publisher, flags: flags},
		now:         time.Now,
	}
}

// Create publishes post for the account of userID. The post starts PENDING.
func (s *PostService) Create(ctx context.Context, userID uint, post *models.Post, attachments []*models.Attachment, files []Upload) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Create",
		attribute.Int("user.id", int(userID)),
		attribute.Int("attachments.count", len(attachments)),
	)
	defer span.End()
	middleware.Logger.DebugContext(ctx, "request to save post", "title", post.Title)

	account, err := s.accounts.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewBadRequestAlert(EntityPost, models.ErrKeyAccountNotFound, "The current user has no account")
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if post.Title == "" {
		return nil, models.NewValidationError("title is required")
	}
	if post.Visibility != "" && !post.Visibility.Valid() {
		return nil, models.NewValidationError("invalid visibility")
	}
	if err := checkUploads(attachments, files); err != nil {
		return nil, err
	}

	post.Status = models.StatusPending
	post.At = s.now()
	post.Attachments = nil
	account.AddPost(post)
	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("post.id", int(post.ID)))

	if _, err := s.attachments.SaveForPost(ctx, post, attachments, files); err != nil {
		span.SetError(err)
		if derr := s.Delete(ctx, post.ID); derr != nil {
			middleware.Logger.WarnContext(ctx, "failed to discard post after attachment error", "post_id", post.ID, "error", derr)
		}
		return nil, err
	}

	s.notifySubscribers(ctx, notifications.EventPostCreated, post)
	return s.reload(ctx, post)
}

// Update merges p into the stored post, adds the new attachments and finally
// deletes the ones listed in deletedIDs. The delete policy follows the status
// the post had before this update.
func (s *PostService) Update(ctx context.Context, p *PostPatch, attachments []*models.Attachment, deletedIDs []uint, files []Upload) (*models.Post, error) {
	if p == nil || p.ID == nil {
		return nil, models.NewBadRequestAlert(EntityPost, models.ErrKeyIDNull, "Invalid id")
	}
	id := *p.ID
	span, ctx := observability.NewSpan(ctx, "PostService.Update", attribute.Int("post.id", int(id)))
	defer span.End()
	middleware.Logger.DebugContext(ctx, "request to update post", "id", id)

	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, idNotFound(EntityPost)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	before := *post

	if err := p.apply(post); err != nil {
		return nil, err
	}
	if err := checkUploads(attachments, files); err != nil {
		return nil, err
	}
	now := s.now()
	post.Status = models.StatusPending
	post.LastUpdate = &now
	if err := s.posts.Save(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}

	if _, err := s.attachments.SaveForPost(ctx, post, attachments, files); err != nil {
		span.SetError(err)
		return nil, err
	}

	if len(deletedIDs) > 0 {
		found, err := s.attachments.attachments.FindByIDs(ctx, deletedIDs)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		removed := make([]*models.Attachment, 0, len(found))
		for _, a := range found {
			if a.PostID == post.ID && !a.IsSoftDeleted() {
				removed = append(removed, a)
			}
		}
		// post is PENDING by now. Files of a post that was already published are
		// only soft deleted, so the policy must see the pre-update status.
		if err := s.attachments.Delete(ctx, &before, removed); err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	s.notifySubscribers(ctx, notifications.EventPostUpdated, post)
	return s.reload(ctx, post)
}

func (s *PostService) PartialUpdate(ctx context.Context, id uint, p *PostPatch) (*models.Post, error) {
	return s.patch(ctx, id, p.apply)
}

// Delete removes the post together with all its attachments and their files.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	middleware.Logger.DebugContext(ctx, "request to delete post", "id", id)
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, EntityPost, id)
	}
	attachments, err := s.attachments.attachments.FindByPostID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.attachments.DeletePermanently(ctx, attachments); err != nil {
		return err
	}
	if dir, err := storage.Dir(append([]string{s.dir}, post.Directories()...)...); err == nil {
		if err := s.storage.DeleteDir(ctx, dir); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			middleware.Logger.WarnContext(ctx, "failed to remove post directory", "dir", dir, "error", err)
		}
	}
	return s.posts.Delete(ctx, id)
}

func (s *PostService) notifySubscribers(ctx context.Context, eventType string, post *models.Post) {
	if s.memberships == nil {
		return
	}
	userIDs, err := s.memberships.SubscriberUserIDs(ctx, post.AccountID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to resolve subscribers", "account_id", post.AccountID, "error", err)
		return
	}
	s.events.publish(ctx, eventType, post, userIDs...)
}

func (s *PostService) reload(ctx context.Context, post *models.Post) (*models.Post, error) {
	fresh, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return fresh, nil
}
