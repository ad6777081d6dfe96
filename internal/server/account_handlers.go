package server

import (
	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAccount handles POST /api/ngelmak-accounts
// @Summary Open an account
// @Description Creates the caller's account with a fresh default configuration
// @Tags accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateAccountInput true "Account"
// @Success 201 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Router /ngelmak-accounts [post]
func (s *Server) CreateAccount(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
		service.CreateAccountInput
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if err := checkCreateID(service.EntityAccount, req.ID); err != nil {
		return s.respondError(c, err)
	}

	account, err := s.accountService.Create(c.UserContext(), currentUserID(c), req.CreateAccountInput)
	if err != nil {
		return s.respondError(c, err)
	}

	id := formatID(account.ID)
	s.setAlert(c, service.EntityAccount, "created", id)
	c.Location("/api/ngelmak-accounts/" + id)
	return c.Status(fiber.StatusCreated).JSON(account)
}

// UpdateAccount handles PUT /api/ngelmak-accounts
// @Summary Replace an account
// @Description The id travels in the body
// @Tags accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Account true "Account"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Router /ngelmak-accounts [put]
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var account models.Account
	if err := s.parseBody(c, &account); err != nil {
		return nil
	}
	if err := checkUpdateID(service.EntityAccount, 0, &account.ID); err != nil {
		return s.respondError(c, err)
	}

	saved, err := s.accountService.Update(c.UserContext(), &account)
	if err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, service.EntityAccount, "updated", formatID(saved.ID))
	return c.JSON(saved)
}

// PartialUpdateAccount handles PATCH /api/ngelmak-accounts/:id
// @Summary Merge fields into an account
// @Tags accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param request body service.AccountPatch true "Fields to change"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Router /ngelmak-accounts/{id} [patch]
func (s *Server) PartialUpdateAccount(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityAccount, new(service.AccountPatch), s.accountService.PartialUpdate)
}

// GetAccounts handles GET /api/ngelmak-accounts
// @Summary List accounts
// @Tags accounts
// @Security BearerAuth
// @Produce json
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,asc|desc"
// @Success 200 {array} models.Account
// @Router /ngelmak-accounts [get]
func (s *Server) GetAccounts(c *fiber.Ctx) error {
	return listEntities[models.Account](s, c, s.accountService)
}

// GetAccount handles GET /api/ngelmak-accounts/:id
// @Summary Get an account
// @Tags accounts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} models.ErrorResponse
// @Router /ngelmak-accounts/{id} [get]
func (s *Server) GetAccount(c *fiber.Ctx) error {
	return getEntity[models.Account](s, c, s.accountService)
}

// GetCurrentAccount handles GET /api/ngelmak-accounts/current-user
// @Summary Get the caller's account
// @Tags accounts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Account
// @Failure 404 {object} models.ErrorResponse
// @Router /ngelmak-accounts/current-user [get]
func (s *Server) GetCurrentAccount(c *fiber.Ctx) error {
	account, err := s.accountService.Current(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(account)
}

// DeleteAccount handles DELETE /api/ngelmak-accounts/:id
// @Summary Delete an account
// @Tags accounts
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204
// @Router /ngelmak-accounts/{id} [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.accountService, service.EntityAccount)
}
