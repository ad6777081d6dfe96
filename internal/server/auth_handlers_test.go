package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ngelmak/internal/config"
	"ngelmak/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": currentUserID(c)})
	})

	sign := func(sub, issuer, audience string, exp time.Duration, method jwt.SigningMethod, key any) string {
		claims := jwt.MapClaims{
			"sub": sub,
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
		}
		str, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return str
	}
	hs := jwt.SigningMethodHS256
	secret := []byte(testSecret)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid Token", "Bearer " + sign("123", tokenIssuer, tokenAudience, time.Hour, hs, secret), http.StatusOK},
		{"Expired Token", "Bearer " + sign("123", tokenIssuer, tokenAudience, -time.Hour, hs, secret), http.StatusUnauthorized},
		{"Invalid Issuer", "Bearer " + sign("123", "wrong-issuer", tokenAudience, time.Hour, hs, secret), http.StatusUnauthorized},
		{"Invalid Audience", "Bearer " + sign("123", tokenIssuer, "wrong-audience", time.Hour, hs, secret), http.StatusUnauthorized},
		{"Wrong Secret", "Bearer " + sign("123", tokenIssuer, tokenAudience, time.Hour, hs, []byte("another-secret")), http.StatusUnauthorized},
		{"Non Numeric Subject", "Bearer " + sign("alice", tokenIssuer, tokenAudience, time.Hour, hs, secret), http.StatusUnauthorized},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Malformed Bearer Format", "Token abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestGenerateToken_Claims(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret, JWTTTLHours: 2, JWTRememberMeTTLHours: 48}}
	user := &models.User{ID: 7, Login: "alice", Authorities: []models.Authority{{Name: models.RoleAdmin}, {Name: models.RoleUser}}}

	tok, err := s.generateToken(user, false)
	require.NoError(t, err)
	claims, err := s.parseToken(tok)
	require.NoError(t, err)

	id, err := subjectID(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "alice", claims["login"])
	assert.Equal(t, "ROLE_ADMIN ROLE_USER", claims["auth"])
	assert.NotEmpty(t, claims["jti"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp.Time, time.Minute)

	tok, err = s.generateToken(user, true)
	require.NoError(t, err)
	claims, err = s.parseToken(tok)
	require.NoError(t, err)
	exp, err = claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), exp.Time, time.Minute)
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	s := &Server{config: &config.Config{}}
	_, err := s.generateToken(&models.User{ID: 1}, false)
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	resp := e.doJSON(t, http.MethodPost, "/api/authenticate",
		map[string]any{"username": "alice", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderAuthorization), "Bearer "))
	body := decode[map[string]string](t, resp)
	require.NotEmpty(t, body["id_token"])

	claims, err := e.s.parseToken(body["id_token"])
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(u.ID), 10), claims["sub"])

	resp = e.doJSON(t, http.MethodPost, "/api/authenticate",
		map[string]any{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/authenticate", map[string]any{"username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/authenticate", strings.NewReader("{"), fiber.MIMEApplicationJSON, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthorize_RejectsInactiveUser(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "sleepy")
	require.NoError(t, e.db.Model(u).Update("activated", false).Error)

	resp := e.doJSON(t, http.MethodPost, "/api/authenticate",
		map[string]any{"username": "sleepy", "password": testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIsAuthenticated(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	resp := e.do(t, http.MethodGet, "/api/authenticate", nil, "", e.token(t, u))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", readBody(t, resp))

	resp = e.do(t, http.MethodGet, "/api/authenticate", nil, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))
}

func TestRegisterActivateAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	in := map[string]any{"login": "Newbie", "email": "newbie@example.com", "password": "hunter22", "langKey": "en"}

	resp := e.doJSON(t, http.MethodPost, "/api/register", in, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, e.db.Where("login = ?", "newbie").First(&user).Error)
	assert.False(t, user.Activated)
	require.NotNil(t, user.ActivationKey)

	resp = e.doJSON(t, http.MethodPost, "/api/register", in, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.ErrKeyUserExists, decode[models.ErrorResponse](t, resp).Code)

	resp = e.do(t, http.MethodGet, "/api/activate?key=unknown", nil, "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/activate?key="+*user.ActivationKey, nil, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/authenticate",
		map[string]any{"username": "newbie", "password": "hunter22"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_InvalidPassword(t *testing.T) {
	e := newTestEnv(t)

	resp := e.doJSON(t, http.MethodPost, "/api/register",
		map[string]any{"login": "shorty", "email": "shorty@example.com", "password": "abc"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "forgetful")

	resp := e.do(t, http.MethodPost, "/api/account/reset-password/init",
		strings.NewReader("nobody@example.com"), fiber.MIMETextPlain, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/account/reset-password/init",
		strings.NewReader("forgetful@example.com"), fiber.MIMETextPlain, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, e.db.Where("login = ?", "forgetful").First(&user).Error)
	require.NotNil(t, user.ResetKey)

	resp = e.doJSON(t, http.MethodPost, "/api/account/reset-password/finish",
		map[string]any{"key": "bogus", "newPassword": "brand-new"}, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/account/reset-password/finish",
		map[string]any{"key": *user.ResetKey, "newPassword": "brand-new"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/authenticate",
		map[string]any{"username": "forgetful", "password": "brand-new"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "leaving")
	tok := e.token(t, u)

	resp := e.do(t, http.MethodGet, "/api/configs", nil, "", tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/logout", nil, "", tok)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	claims, err := e.s.parseToken(tok)
	require.NoError(t, err)
	ttl := e.mr.TTL(blacklistPrefix + claims["jti"].(string))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)

	resp = e.do(t, http.MethodGet, "/api/configs", nil, "", tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/authenticate", nil, "", tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))
}
