package server

import (
	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

func commentID(c *models.Comment) uint       { return c.ID }
func ticketID(t *models.Ticket) uint         { return t.ID }
func reviewID(r *models.Review) uint         { return r.ID }
func membershipID(m *models.Membership) uint { return m.ID }

// CreateComment handles POST /api/comments
// @Summary Create a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Comment true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityComment, "/api/comments", commentID, s.commentService.Create)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Replace a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body models.Comment true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityComment, commentID, s.commentService.Update)
}

// PartialUpdateComment handles PATCH /api/comments/:id
// @Summary Merge fields into a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body service.CommentPatch true "Fields to change"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/{id} [patch]
func (s *Server) PartialUpdateComment(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityComment, new(service.CommentPatch), s.commentService.PartialUpdate)
}

// GetComments handles GET /api/comments
// @Summary List comments
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Comment
// @Router /comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	return listEntities[models.Comment](s, c, s.commentService)
}

// GetComment handles GET /api/comments/:id
// @Summary Get a comment
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	return getEntity[models.Comment](s, c, s.commentService)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.commentService, service.EntityComment)
}

// CreateTicket handles POST /api/tickets
// @Summary Create a ticket
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Ticket true "Ticket"
// @Success 201 {object} models.Ticket
// @Failure 400 {object} models.ErrorResponse
// @Router /tickets [post]
func (s *Server) CreateTicket(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityTicket, "/api/tickets", ticketID, s.ticketService.Create)
}

// UpdateTicket handles PUT /api/tickets/:id
// @Summary Replace a ticket
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body models.Ticket true "Ticket"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} models.ErrorResponse
// @Router /tickets/{id} [put]
func (s *Server) UpdateTicket(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityTicket, ticketID, s.ticketService.Update)
}

// PartialUpdateTicket handles PATCH /api/tickets/:id
// @Summary Merge fields into a ticket
// @Tags tickets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body service.TicketPatch true "Fields to change"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} models.ErrorResponse
// @Router /tickets/{id} [patch]
func (s *Server) PartialUpdateTicket(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityTicket, new(service.TicketPatch), s.ticketService.PartialUpdate)
}

// GetTickets handles GET /api/tickets
// @Summary List tickets
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Ticket
// @Router /tickets [get]
func (s *Server) GetTickets(c *fiber.Ctx) error {
	return listEntities[models.Ticket](s, c, s.ticketService)
}

// GetTicket handles GET /api/tickets/:id
// @Summary Get a ticket
// @Tags tickets
// @Security BearerAuth
// @Produce json
// @Param id path int true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} models.ErrorResponse
// @Router /tickets/{id} [get]
func (s *Server) GetTicket(c *fiber.Ctx) error {
	return getEntity[models.Ticket](s, c, s.ticketService)
}

// DeleteTicket handles DELETE /api/tickets/:id
// @Summary Delete a ticket
// @Tags tickets
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Success 204
// @Router /tickets/{id} [delete]
func (s *Server) DeleteTicket(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.ticketService, service.EntityTicket)
}

// CreateReview handles POST /api/reviews
// @Summary Create a review
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Review true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityReview, "/api/reviews", reviewID, s.reviewService.Create)
}

// UpdateReview handles PUT /api/reviews/:id
// @Summary Replace a review
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body models.Review true "Review"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews/{id} [put]
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityReview, reviewID, s.reviewService.Update)
}

// PartialUpdateReview handles PATCH /api/reviews/:id
// @Summary Merge fields into a review
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body service.ReviewPatch true "Fields to change"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews/{id} [patch]
func (s *Server) PartialUpdateReview(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityReview, new(service.ReviewPatch), s.reviewService.PartialUpdate)
}

// GetReviews handles GET /api/reviews
// @Summary List reviews
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Review
// @Router /reviews [get]
func (s *Server) GetReviews(c *fiber.Ctx) error {
	return listEntities[models.Review](s, c, s.reviewService)
}

// GetReview handles GET /api/reviews/:id
// @Summary Get a review
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	return getEntity[models.Review](s, c, s.reviewService)
}

// DeleteReview handles DELETE /api/reviews/:id
// @Summary Delete a review
// @Tags reviews
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 204
// @Router /reviews/{id} [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.reviewService, service.EntityReview)
}

// CreateMembership handles POST /api/memberships
// @Summary Create a membership
// @Tags memberships
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Membership true "Membership"
// @Success 201 {object} models.Membership
// @Failure 400 {object} models.ErrorResponse
// @Router /memberships [post]
func (s *Server) CreateMembership(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityMembership, "/api/memberships", membershipID, s.membershipService.Create)
}

// UpdateMembership handles PUT /api/memberships/:id
// @Summary Replace a membership
// @Tags memberships
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Membership ID"
// @Param request body models.Membership true "Membership"
// @Success 200 {object} models.Membership
// @Failure 400 {object} models.ErrorResponse
// @Router /memberships/{id} [put]
func (s *Server) UpdateMembership(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityMembership, membershipID, s.membershipService.Update)
}

// PartialUpdateMembership handles PATCH /api/memberships/:id
// @Summary Merge fields into a membership
// @Tags memberships
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Membership ID"
// @Param request body service.MembershipPatch true "Fields to change"
// @Success 200 {object} models.Membership
// @Failure 400 {object} models.ErrorResponse
// @Router /memberships/{id} [patch]
func (s *Server) PartialUpdateMembership(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityMembership, new(service.MembershipPatch), s.membershipService.PartialUpdate)
}

// GetMemberships handles GET /api/memberships
// @Summary List memberships
// @Tags memberships
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Membership
// @Router /memberships [get]
func (s *Server) GetMemberships(c *fiber.Ctx) error {
	return listEntities[models.Membership](s, c, s.membershipService)
}

// GetMembership handles GET /api/memberships/:id
// @Summary Get a membership
// @Tags memberships
// @Security BearerAuth
// @Produce json
// @Param id path int true "Membership ID"
// @Success 200 {object} models.Membership
// @Failure 404 {object} models.ErrorResponse
// @Router /memberships/{id} [get]
func (s *Server) GetMembership(c *fiber.Ctx) error {
	return getEntity[models.Membership](s, c, s.membershipService)
}

// DeleteMembership handles DELETE /api/memberships/:id
// @Summary Delete a membership
// @Tags memberships
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 204
// @Router /memberships/{id} [delete]
func (s *Server) DeleteMembership(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.membershipService, service.EntityMembership)
}
