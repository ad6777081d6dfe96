package server

import (
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Authorize handles POST /api/authenticate
// @Summary Sign in
// @Description Exchange credentials of an activated user for a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string,rememberMe=bool} true "Credentials"
// @Success 200 {object} object{id_token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /authenticate [post]
func (s *Server) Authorize(c *fiber.Ctx) error {
	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user, req.RememberMe)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return c.JSON(fiber.Map{"id_token": token})
}

// IsAuthenticated handles GET /api/authenticate
// @Summary Current login
// @Description Returns the login of the authenticated caller, or an empty body
// @Tags auth
// @Produce plain
// @Success 200 {string} string
// @Router /authenticate [get]
func (s *Server) IsAuthenticated(c *fiber.Ctx) error {
	login, _ := s.optionalLogin(c)
	return c.SendString(login)
}

// RegisterAccount handles POST /api/register
// @Summary Register a user
// @Description Creates an inactive user and sends its activation email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) RegisterAccount(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := s.parseBody(c, &in); err != nil {
		return nil
	}
	if _, err := s.userService.Register(c.UserContext(), in); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// ActivateAccount handles GET /api/activate?key=
// @Summary Activate a user
// @Tags auth
// @Param key query string true "Activation key"
// @Success 200
// @Failure 500 {object} models.ErrorResponse
// @Router /activate [get]
func (s *Server) ActivateAccount(c *fiber.Ctx) error {
	if _, err := s.userService.Activate(c.UserContext(), c.Query("key")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// RequestPasswordReset handles POST /api/account/reset-password/init
// @Summary Request a password reset
// @Description Mails a reset key. Answers 200 even for unknown addresses.
// @Tags auth
// @Accept plain
// @Param email body string true "Email address"
// @Success 200
// @Router /account/reset-password/init [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	email := string(c.Body())
	var req struct {
		Email string `json:"email"`
	}
	if c.Is("json") && c.BodyParser(&req) == nil {
		email = req.Email
	}
	if err := s.userService.RequestPasswordReset(c.UserContext(), email); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// FinishPasswordReset handles POST /api/account/reset-password/finish
// @Summary Complete a password reset
// @Tags auth
// @Accept json
// @Param request body object{key=string,newPassword=string} true "Reset key and new password"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /account/reset-password/finish [post]
func (s *Server) FinishPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Key         string `json:"key"`
		NewPassword string `json:"newPassword"`
	}
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := s.userService.CompletePasswordReset(c.UserContext(), req.Key, req.NewPassword); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Logout handles POST /api/logout
// @Summary Revoke the current token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	if jti == "" || s.redis == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	ttl := time.Duration(defaultTokenHours) * time.Hour
	if exp, ok := c.Locals("tokenExp").(time.Time); ok {
		ttl = time.Until(exp)
	}
	if ttl > 0 {
		if err := s.redis.Set(c.UserContext(), blacklistPrefix+jti, "1", ttl).Err(); err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
