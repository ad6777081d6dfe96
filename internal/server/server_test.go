package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ngelmak/internal/config"
	"ngelmak/internal/database"
	"ngelmak/internal/featureflags"
	"ngelmak/internal/models"
	"ngelmak/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret   = "test-secret-key-12345678901234567890123456789012"
	testPassword = "secret"
)

// testEnv is a fully wired server over sqlite, miniredis and a temp storage root.
type testEnv struct {
	s    *Server
	app  *fiber.App
	db   *gorm.DB
	mr   *miniredis.Miniredis
	rdb  *redis.Client
	root string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	root := t.TempDir()
	store, err := storage.NewLocalStorage(root)
	require.NoError(t, err)

	cfg := &config.Config{
		AppName:               "ngelmakApp",
		Env:                   "test",
		BaseURL:               "http://localhost:4200",
		JWTSecret:             testSecret,
		JWTTTLHours:           1,
		StorageAttachmentsDir: "attachments",
		MaxUploadSizeMB:       5,
	}
	s, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)

	return &testEnv{s: s, app: s.NewApp(), db: db, mr: mr, rdb: rdb, root: root}
}

// createUser stores an activated ROLE_USER whose password is testPassword.
func (e *testEnv) createUser(t *testing.T, login string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Login:       login,
		Email:       login + "@example.com",
		Password:    string(hash),
		Activated:   true,
		LangKey:     "en",
		Authorities: []models.Authority{{Name: models.RoleUser}},
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := e.s.generateToken(u, false)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any, token string) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, body, fiber.MIMEApplicationJSON, token)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestNewServerWithDeps_RequiresDatabaseAndStorage(t *testing.T) {
	cfg := &config.Config{AppName: "ngelmakApp"}

	_, err := NewServerWithDeps(cfg, nil, nil, nil)
	assert.Error(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	_, err = NewServerWithDeps(cfg, db, nil, nil)
	assert.Error(t, err)
}

func TestNewServerWithDeps_WithoutRedisDisablesRealtime(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	s, err := NewServerWithDeps(&config.Config{AppName: "ngelmakApp"}, db, nil, store)
	require.NoError(t, err)
	assert.Nil(t, s.hub)
	assert.Nil(t, s.notifier)
	assert.Empty(t, s.hubs)
}

func TestHealthChecks(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/health/live", nil, "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/health/ready", nil, "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])

	e.mr.Close()
	resp = e.do(t, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/configs", "/api/posts", "/api/ngelmak-accounts/current-user", "/api/feature-flags"} {
		resp := e.do(t, http.MethodGet, path, nil, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestErrorHandler_UnknownRouteIsNotFound(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/does-not-exist", nil, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
}

func TestGetFeatureFlags(t *testing.T) {
	e := newTestEnv(t)
	e.s.featureFlags = nil
	u := e.createUser(t, "flags")

	resp := e.do(t, http.MethodGet, "/api/feature-flags", nil, "", e.token(t, u))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[FeatureFlagsResponse](t, resp)
	assert.Empty(t, body.Raw)
	assert.Equal(t, map[string]bool{featureflags.AttachmentPreviews: false, featureflags.Realtime: false}, body.Evaluated)
}

func TestGetFeatureFlags_Configured(t *testing.T) {
	e := newTestEnv(t)
	e.s.featureFlags = featureflags.NewManager("realtime=on, beta=0%, attachment_previews=off")
	u := e.createUser(t, "flags")

	resp := e.do(t, http.MethodGet, "/api/feature-flags", nil, "", e.token(t, u))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[FeatureFlagsResponse](t, resp)
	assert.Equal(t, map[string]string{"realtime": "on", "beta": "0%", "attachment_previews": "off"}, body.Raw)
	assert.Equal(t, map[string]bool{"realtime": true, "beta": false, "attachment_previews": false}, body.Evaluated)
}
