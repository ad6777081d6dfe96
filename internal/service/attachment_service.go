package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"ngelmak/internal/featureflags"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/observability"
	"ngelmak/internal/repository"
	"ngelmak/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// Upload is one file received with a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// BytesUpload wraps in-memory content as an Upload.
func BytesUpload(filename, contentType string, data []byte) Upload {
	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

type AttachmentService struct {
	crudService[models.Attachment]
	attachments repository.AttachmentRepository
	storage     storage.Storage
	flags       *featureflags.Manager
	dir         string
	now         func() time.Time
}

func NewAttachmentService(
	attachments repository.AttachmentRepository,
	store storage.Storage,
	flags *featureflags.Manager,
	attachmentsDir string,
) *AttachmentService {
	return &AttachmentService{
		crudService: crudService[models.Attachment]{repo: attachments, entity: EntityAttachment},
		attachments: attachments,
		storage:     store,
		flags:       flags,
		dir:         attachmentsDir,
		now:         time.Now,
	}
}

func validateAttachment(a *models.Attachment) error {
	if !a.Category.Valid() {
		return models.NewValidationError("invalid attachment category")
	}
	if a.Type == "" {
		return models.NewValidationError("attachment type is required")
	}
	return nil
}

// checkUploads validates attachments and makes sure every file-backed one has an upload.
func checkUploads(attachments []*models.Attachment, files []Upload) error {
	needed := 0
	for _, a := range attachments {
		if err := validateAttachment(a); err != nil {
			return err
		}
		if a.Category.HasFile() {
			needed++
		}
	}
	if needed > len(files) {
		return models.NewBadRequestAlert(EntityAttachment, models.ErrKeyFileMissing,
			fmt.Sprintf("%d attachments need a file but %d were uploaded", needed, len(files)))
	}
	return nil
}

// SaveForPost attaches every attachment to post. Each file-backed attachment
// consumes the next upload in order, stored under the post's directory.
func (s *AttachmentService) SaveForPost(ctx context.Context, post *models.Post, attachments []*models.Attachment, files []Upload) ([]*models.Attachment, error) {
	span, ctx := observability.NewSpan(ctx, "AttachmentService.SaveForPost",
		attribute.Int("post.id", int(post.ID)),
		attribute.Int("attachments.count", len(attachments)),
		attribute.Int("files.count", len(files)),
	)
	defer span.End()
	middleware.Logger.DebugContext(ctx, "request to save attachments", "post_id", post.ID, "count", len(attachments))

	if err := checkUploads(attachments, files); err != nil {
		span.SetError(err)
		return nil, err
	}

	next := 0
	for _, a := range attachments {
		a.ID = 0
		a.DeletedAt = nil
		post.AddAttachment(a)
		if !a.Category.HasFile() {
			continue
		}
		if err := s.storeFile(ctx, post, a, files[next]); err != nil {
			span.SetError(err)
			return nil, err
		}
		next++
	}

	if err := s.attachments.SaveAll(ctx, attachments); err != nil {
		span.SetError(err)
		return nil, err
	}
	return attachments, nil
}

func (s *AttachmentService) storeFile(ctx context.Context, post *models.Post, a *models.Attachment, file Upload) error {
	if a.Filename == "" {
		a.Filename = file.Filename
	}
	key, err := storage.Key(a.Filename, append([]string{s.dir}, post.Directories()...)...)
	if err != nil {
		return models.NewValidationError(fmt.Sprintf("invalid filename %q", a.Filename))
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("%w: open upload: %v", storage.ErrStorage, err)
	}
	defer func() { _ = rc.Close() }()

	var (
		body io.Reader = rc
		data []byte
	)
	wantPreview := a.Category == models.CategoryImage && s.flags.EnabledGlobally(featureflags.AttachmentPreviews)
	if wantPreview {
		if data, err = io.ReadAll(rc); err != nil {
			return fmt.Errorf("%w: read upload: %v", storage.ErrStorage, err)
		}
		body = bytes.NewReader(data)
	}

	counter := &countingReader{r: body}
	if err := s.storage.Store(ctx, key, counter, file.Size, file.ContentType); err != nil {
		return err
	}
	a.Size = counter.n
	a.URL = key
	observability.AttachmentsStored.WithLabelValues(string(a.Category)).Inc()
	observability.StoredBytes.Add(float64(counter.n))

	if wantPreview {
		s.storePreview(ctx, a, data)
	}
	return nil
}

// storePreview is best effort, a failure only loses the preview.
func (s *AttachmentService) storePreview(ctx context.Context, a *models.Attachment, data []byte) {
	preview, err := storage.Preview(data)
	if err == nil {
		var key string
		if key, err = previewKey(a); err == nil {
			err = s.storage.Store(ctx, key, bytes.NewReader(preview), int64(len(preview)), "image/webp")
		}
	}
	if err != nil {
		observability.PreviewFailures.Inc()
		middleware.Logger.WarnContext(ctx, "failed to generate attachment preview", "filename", a.Filename, "error", err)
	}
}

// previewKey places the preview next to the stored original.
func previewKey(a *models.Attachment) (string, error) {
	if a.URL == "" {
		return "", storage.ErrFileNotFound
	}
	return path.Join(path.Dir(a.URL), a.PreviewName()), nil
}

// Delete removes attachments of post. A PENDING post loses them for good,
// any other status only marks them deleted for the sweeper.
func (s *AttachmentService) Delete(ctx context.Context, post *models.Post, attachments []*models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	middleware.Logger.DebugContext(ctx, "request to delete attachments", "post_id", post.ID, "count", len(attachments), "status", post.Status)
	if post.Status == models.StatusPending {
		return s.DeletePermanently(ctx, attachments)
	}

	now := s.now()
	for _, a := range attachments {
		a.DeletedAt = &now
	}
	if err := s.attachments.SaveAll(ctx, attachments); err != nil {
		return err
	}
	observability.AttachmentsDeleted.WithLabelValues("soft").Add(float64(len(attachments)))
	return nil
}

// DeletePermanently removes stored files first, then the rows.
func (s *AttachmentService) DeletePermanently(ctx context.Context, attachments []*models.Attachment) error {
	if err := s.deleteFiles(ctx, attachments); err != nil {
		return err
	}
	if err := s.attachments.DeleteAll(ctx, attachments); err != nil {
		return err
	}
	observability.AttachmentsDeleted.WithLabelValues("permanent").Add(float64(len(attachments)))
	return nil
}

func (s *AttachmentService) deleteFiles(ctx context.Context, attachments []*models.Attachment) error {
	for _, a := range attachments {
		if !a.Category.HasFile() || a.URL == "" {
			continue
		}
		if err := s.storage.Delete(ctx, a.URL); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return err
		}
		if a.Category == models.CategoryImage {
			if key, err := previewKey(a); err == nil {
				if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
					return err
				}
			}
		}
	}
	return nil
}

// PurgeDeleted permanently removes attachments soft-deleted before cutoff, batch rows at a time.
func (s *AttachmentService) PurgeDeleted(ctx context.Context, cutoff time.Time, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	purged := 0
	for {
		expired, err := s.attachments.FindDeletedBefore(ctx, cutoff, batch)
		if err != nil {
			return purged, err
		}
		if len(expired) == 0 {
			return purged, nil
		}
		if err := s.deleteFiles(ctx, expired); err != nil {
			return purged, err
		}
		if err := s.attachments.DeleteAll(ctx, expired); err != nil {
			return purged, err
		}
		purged += len(expired)
		observability.AttachmentsDeleted.WithLabelValues("swept").Add(float64(len(expired)))
		if len(expired) < batch {
			return purged, nil
		}
	}
}

// Create stores an attachment row without a file. File fields are owned by the
// upload path and never taken from the caller.
func (s *AttachmentService) Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	if err := validateAttachment(a); err != nil {
		return nil, err
	}
	a.URL, a.Filename, a.Size, a.DeletedAt = "", "", 0, nil
	if err := s.create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AttachmentService) Update(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	if err := validateAttachment(a); err != nil {
		return nil, err
	}
	err := s.replace(ctx, a.ID, a, func(stored, incoming *models.Attachment) {
		incoming.URL = stored.URL
		incoming.Filename = stored.Filename
		incoming.Size = stored.Size
		incoming.DeletedAt = stored.DeletedAt
		incoming.PostID = stored.PostID
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AttachmentService) PartialUpdate(ctx context.Context, id uint, p *AttachmentPatch) (*models.Attachment, error) {
	return s.patch(ctx, id, p.apply)
}

// Remove deletes one attachment together with its stored file.
func (s *AttachmentService) Remove(ctx context.Context, id uint) error {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, EntityAttachment, id)
	}
	return s.DeletePermanently(ctx, []*models.Attachment{a})
}

// Resource returns the stored bytes of attachment id with their content type.
func (s *AttachmentService) Resource(ctx context.Context, id uint) ([]byte, string, error) {
	middleware.Logger.DebugContext(ctx, "request to get the resource of attachment", "id", id)
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !a.Category.HasFile() || a.URL == "" {
		return nil, "", models.NewNotFoundError("Attachment resource", id)
	}
	data, err := s.load(ctx, a.URL, id)
	if err != nil {
		return nil, "", err
	}
	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" && strings.Contains(a.Type, "/") {
		contentType = a.Type
	}
	return data, contentType, nil
}

// Preview returns the WebP preview of an IMAGE attachment.
func (s *AttachmentService) Preview(ctx context.Context, id uint) ([]byte, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Category != models.CategoryImage {
		return nil, models.NewNotFoundError("Attachment preview", id)
	}
	key, err := previewKey(a)
	if err != nil {
		return nil, models.NewNotFoundError("Attachment preview", id)
	}
	return s.load(ctx, key, id)
}

func (s *AttachmentService) load(ctx context.Context, key string, id uint) ([]byte, error) {
	data, err := s.storage.Load(ctx, key)
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, models.NewNotFoundError("Attachment resource", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
