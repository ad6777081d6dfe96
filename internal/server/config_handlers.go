package server

import (
	"strings"

	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

// filterConfigsWithoutAccount selects configurations no account references.
const filterConfigsWithoutAccount = "ngelmakaccount-is-null"

func configID(c *models.Config) uint { return c.ID }

// CreateConfig handles POST /api/configs
// @Summary Create a configuration
// @Tags configs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.Config true "Config"
// @Success 201 {object} models.Config
// @Failure 400 {object} models.ErrorResponse
// @Router /configs [post]
func (s *Server) CreateConfig(c *fiber.Ctx) error {
	return createEntity(s, c, service.EntityConfig, "/api/configs", configID, s.configService.Create)
}

// UpdateConfig handles PUT /api/configs/:id
// @Summary Replace a configuration
// @Tags configs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Config ID"
// @Param request body models.Config true "Config"
// @Success 200 {object} models.Config
// @Failure 400 {object} models.ErrorResponse
// @Router /configs/{id} [put]
func (s *Server) UpdateConfig(c *fiber.Ctx) error {
	return updateEntity(s, c, service.EntityConfig, configID, s.configService.Update)
}

// PartialUpdateConfig handles PATCH /api/configs/:id
// @Summary Merge fields into a configuration
// @Tags configs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Config ID"
// @Param request body service.ConfigPatch true "Fields to change"
// @Success 200 {object} models.Config
// @Failure 400 {object} models.ErrorResponse
// @Router /configs/{id} [patch]
func (s *Server) PartialUpdateConfig(c *fiber.Ctx) error {
	return patchEntity(s, c, service.EntityConfig, new(service.ConfigPatch), s.configService.PartialUpdate)
}

// GetConfigs handles GET /api/configs
// @Summary List configurations
// @Description filter=ngelmakaccount-is-null returns every unreferenced configuration, unpaginated
// @Tags configs
// @Security BearerAuth
// @Produce json
// @Param filter query string false "ngelmakaccount-is-null"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {array} models.Config
// @Router /configs [get]
func (s *Server) GetConfigs(c *fiber.Ctx) error {
	if strings.EqualFold(c.Query("filter"), filterConfigsWithoutAccount) {
		configs, err := s.configService.FindWithoutAccount(c.UserContext())
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(configs)
	}
	return listEntities[models.Config](s, c, s.configService)
}

// GetConfig handles GET /api/configs/:id
// @Summary Get a configuration
// @Tags configs
// @Security BearerAuth
// @Produce json
// @Param id path int true "Config ID"
// @Success 200 {object} models.Config
// @Failure 404 {object} models.ErrorResponse
// @Router /configs/{id} [get]
func (s *Server) GetConfig(c *fiber.Ctx) error {
	return getEntity[models.Config](s, c, s.configService)
}

// DeleteConfig handles DELETE /api/configs/:id
// @Summary Delete a configuration
// @Tags configs
// @Security BearerAuth
// @Param id path int true "Config ID"
// @Success 204
// @Router /configs/{id} [delete]
func (s *Server) DeleteConfig(c *fiber.Ctx) error {
	return deleteEntity(s, c, s.configService, service.EntityConfig)
}
