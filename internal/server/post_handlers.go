package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Multipart part names of the post endpoints.
const (
	partPost               = "post"
	partAttachments        = "attachments"
	partDeletedAttachments = "deletedAttachments"
	partFiles              = "files"
)

// jsonPart decodes the named part, sent either as a form field or as a JSON file part.
// It reports false when the part is absent.
func jsonPart(form *multipart.Form, name string, dst any) (bool, error) {
	if values := form.Value[name]; len(values) > 0 {
		return true, json.Unmarshal([]byte(values[0]), dst)
	}
	if files := form.File[name]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return true, err
		}
		defer func() { _ = f.Close() }()
		return true, json.NewDecoder(f).Decode(dst)
	}
	return false, nil
}

func uploads(form *multipart.Form) []service.Upload {
	headers := form.File[partFiles]
	out := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		out = append(out, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return out
}

// postForm is the decoded multipart body of a post create or update.
type postForm struct {
	attachments []*models.Attachment
	deletedIDs  []uint
	files       []service.Upload
}

// parsePostForm decodes every part but the post itself into a postForm and post into dst.
func (s *Server) parsePostForm(c *fiber.Ctx, dst any) (*postForm, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Expected a multipart/form-data body")
	}

	found, err := jsonPart(form, partPost, dst)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid %s part: %v", partPost, err))
	}
	if !found {
		return nil, models.NewValidationError("Missing " + partPost + " part")
	}

	pf := &postForm{files: uploads(form)}
	if _, err := jsonPart(form, partAttachments, &pf.attachments); err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid %s part: %v", partAttachments, err))
	}

	var deleted []models.Attachment
	if _, err := jsonPart(form, partDeletedAttachments, &deleted); err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid %s part: %v", partDeletedAttachments, err))
	}
	for _, a := range deleted {
		if a.ID != 0 {
			pf.deletedIDs = append(pf.deletedIDs, a.ID)
		}
	}
	return pf, nil
}

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Description Multipart body: post (JSON), attachments (JSON array) and files, consumed in order by non-TEXT attachments
// @Tags posts
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param post formData string true "Post JSON"
// @Param attachments formData string false "Attachments JSON array"
// @Param files formData file false "Attachment files"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var post models.Post
	form, err := s.parsePostForm(c, &post)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := checkCreateID(service.EntityPost, post.ID); err != nil {
		return s.respondError(c, err)
	}

	saved, err := s.postService.Create(c.UserContext(), currentUserID(c), &post, form.attachments, form.files)
	if err != nil {
		return s.respondError(c, err)
	}

	id := formatID(saved.ID)
	s.setAlert(c, service.EntityPost, "created", id)
	c.Location("/api/posts/" + id)
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UpdatePost handles PUT /api/posts
// @Summary Update a post
// @Description Multipart body: post (JSON with id), attachments to add, deletedAttachments and files. Removed attachments are deleted last.
// @Tags posts
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param post formData string true "Post JSON"
// @Param attachments formData string false "New attachments JSON array"
// @Param deletedAttachments formData string false "Removed attachments JSON array"
// @Param files formData file false "Attachment files"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var patch service.PostPatch
	form, err := s.parsePostForm(c, &patch)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := checkUpdateID(service.EntityPost, 0, patch.ID); err != nil {
		return s.respondError(c, err)
	}

	saved, err := s.postService.Update(c.UserContext(), &patch, form.attachments, form.deletedIDs, form.files)
	if err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, service.EntityPost, "updated", formatID(saved.ID))
	return c.JSON(saved)
}

// PartialUpdatePost handles PATCH /api/posts/:id
// @Summary Merge fields into a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body service.PostPatch true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) PartialUpdatePost(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityPost, new(service.PostPatch), s.postService.PartialUpdate)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	return listEntities[models.Post](s, c, s.postService)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post with its attachments
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	return getEntity[models.Post](s, c, s.postService)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post, its attachments and their files
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, service.EntityPost, "deleted", formatID(id))
	return c.SendStatus(fiber.StatusNoContent)
}
