package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "ngelmak-api"
	tokenAudience = "ngelmak-client"

	wsTicketPrefix    = "ws_ticket:"
	blacklistPrefix   = "blacklist:"
	defaultTokenHours = 24
)

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		// 1. WebSocket ticket (short-lived, single-use), only accepted on the socket route
		if isWSPath {
			if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
				userIDStr, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
				if err == nil {
					if userID, parseErr := strconv.ParseUint(userIDStr, 10, 32); parseErr == nil {
						s.authenticated(c, uint(userID))
						return c.Next()
					}
				} else if !errors.Is(err, redis.Nil) {
					middleware.Logger.WarnContext(c.UserContext(), "ws ticket lookup failed", "error", err)
				}
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}

		// 2. Bearer token
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		userID, err := subjectID(claims)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		// Check JTI for revocation
		if jti, _ := claims["jti"].(string); jti != "" {
			if s.redis != nil {
				revoked, err := s.redis.Exists(c.UserContext(), blacklistPrefix+jti).Result()
				if err == nil && revoked > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
			c.Locals("jti", jti)
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.Locals("tokenExp", exp.Time)
		}
		if login, ok := claims["login"].(string); ok {
			c.Locals("login", login)
		}

		s.authenticated(c, userID)
		return c.Next()
	}
}

// authenticated stores the user id in locals and in the user context for logging.
func (s *Server) authenticated(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

// currentUserID returns the caller set by AuthRequired, or zero.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseToken verifies signature, expiry, issuer and audience of tokenString.
func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	return claims, nil
}

func subjectID(claims jwt.MapClaims) (uint, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return uint(userID), nil
}

// optionalLogin returns the login carried by a valid bearer token, if any.
func (s *Server) optionalLogin(c *fiber.Ctx) (string, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return "", false
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return "", false
	}
	if jti, _ := claims["jti"].(string); jti != "" && s.redis != nil {
		if revoked, err := s.redis.Exists(c.UserContext(), blacklistPrefix+jti).Result(); err == nil && revoked > 0 {
			return "", false
		}
	}
	login, ok := claims["login"].(string)
	return login, ok && login != ""
}

// generateToken signs a token for user. rememberMe selects the longer lifetime.
func (s *Server) generateToken(user *models.User, rememberMe bool) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	hours := s.config.JWTTTLHours
	if rememberMe && s.config.JWTRememberMeTTLHours > 0 {
		hours = s.config.JWTRememberMeTTLHours
	}
	if hours <= 0 {
		hours = defaultTokenHours
	}

	authorities := make([]string, 0, len(user.Authorities))
	for _, a := range user.Authorities {
		authorities = append(authorities, a.Name)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"login": user.Login,
		"auth":  strings.Join(authorities, " "),
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(time.Duration(hours) * time.Hour).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so a single token can be revoked
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
