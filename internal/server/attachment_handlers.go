package server

import (
	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

func attachmentID(a *models.Attachment) uint { return a.ID }

// CreateAttachment handles POST /api/attachments
// @Summary Create an attachment row
// @Description Files are only accepted through the post endpoints
// @Tags attachments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Attachment true "Attachment"
// @Success 201 {object} models.Attachment
// @Failure 400 {object} models.ErrorResponse
// @Router /attachments [post]
func (s *Server) CreateAttachment(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityAttachment, "/api/attachments", attachmentID, s.attachmentService.Create)
}

// UpdateAttachment handles PUT /api/attachments/:id
// @Summary Replace an attachment
// @Tags attachments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Attachment ID"
// @Param request body models.Attachment true "Attachment"
// @Success 200 {object} models.Attachment
// @Failure 400 {object} models.ErrorResponse
// @Router /attachments/{id} [put]
func (s *Server) UpdateAttachment(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityAttachment, attachmentID, s.attachmentService.Update)
}

// PartialUpdateAttachment handles PATCH /api/attachments/:id
// @Summary Merge fields into an attachment
// @Tags attachments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Attachment ID"
// @Param request body service.AttachmentPatch true "Fields to change"
// @Success 200 {object} models.Attachment
// @Failure 400 {object} models.ErrorResponse
// @Router /attachments/{id} [patch]
func (s *Server) PartialUpdateAttachment(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityAttachment, new(service.AttachmentPatch), s.attachmentService.PartialUpdate)
}

// GetAttachments handles GET /api/attachments
// @Summary List attachments
// @Tags attachments
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Attachment
// @Router /attachments [get]
func (s *Server) GetAttachments(c *fiber.Ctx) error {
	return listEntities[models.Attachment](s, c, s.attachmentService)
}

// GetAttachment handles GET /api/attachments/:id
// @Summary Get an attachment
// @Tags attachments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Attachment ID"
// @Success 200 {object} models.Attachment
// @Failure 404 {object} models.ErrorResponse
// @Router /attachments/{id} [get]
func (s *Server) GetAttachment(c *fiber.Ctx) error {
	return getEntity[models.Attachment](s, c, s.attachmentService)
}

// GetAttachmentResource handles GET /api/attachments/:id/resource
// @Summary Download the stored file of an attachment
// @Tags attachments
// @Security BearerAuth
// @Produce octet-stream
// @Param id path int true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /attachments/{id}/resource [get]
func (s *Server) GetAttachmentResource(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	data, contentType, err := s.attachmentService.Resource(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// GetAttachmentPreview handles GET /api/attachments/:id/preview
// @Summary Download the WebP preview of an image attachment
// @Tags attachments
// @Security BearerAuth
// @Produce image/webp
// @Param id path int true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /attachments/{id}/preview [get]
func (s *Server) GetAttachmentPreview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	data, err := s.attachmentService.Preview(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/webp")
	return c.Send(data)
}

// DeleteAttachment handles DELETE /api/attachments/:id
// @Summary Delete an attachment and its stored file
// @Tags attachments
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /attachments/{id} [delete]
func (s *Server) DeleteAttachment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.attachmentService.Remove(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, service.EntityAttachment, "deleted", formatID(id))
	return c.SendStatus(fiber.StatusNoContent)
}
