package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ngelmak/internal/config"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageable(t *testing.T) {
	app := fiber.New()
	var got repository.PageRequest
	app.Get("/items", func(c *fiber.Ctx) error {
		got = parsePageable(c)
		return nil
	})

	tests := []struct {
		query string
		want  repository.PageRequest
	}{
		{"", repository.PageRequest{Page: 0, Size: repository.DefaultPageSize}},
		{"?page=3&size=5", repository.PageRequest{Page: 3, Size: 5}},
		{"?page=-1&size=1000", repository.PageRequest{Page: 0, Size: repository.MaxPageSize}},
		{"?sort=title,desc&sort=id", repository.PageRequest{
			Page: 0, Size: repository.DefaultPageSize,
			Sort: []repository.SortOrder{{Property: "title", Desc: true}, {Property: "id"}},
		}},
		{"?sort=,desc", repository.PageRequest{Page: 0, Size: repository.DefaultPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got = repository.PageRequest{}
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/api/things", func(c *fiber.Ctx) error {
		page := &repository.Page[int]{Total: 45, Page: c.QueryInt("page"), Size: 20}
		setPaginationHeaders(c, page)
		return nil
	})

	get := func(query string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/things"+query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := get("?page=0")
	assert.Equal(t, "45", resp.Header.Get("X-Total-Count"))
	assert.Equal(t,
		`<http://example.com/api/things?page=1&size=20>; rel="next",`+
			`<http://example.com/api/things?page=2&size=20>; rel="last",`+
			`<http://example.com/api/things?page=0&size=20>; rel="first"`,
		resp.Header.Get(fiber.HeaderLink))

	resp = get("?page=2")
	link := resp.Header.Get(fiber.HeaderLink)
	assert.NotContains(t, link, `rel="next"`)
	assert.Contains(t, link, `<http://example.com/api/things?page=1&size=20>; rel="prev"`)
}

func TestSetPaginationHeaders_EmptyPage(t *testing.T) {
	app := fiber.New()
	app.Get("/api/things", func(c *fiber.Ctx) error {
		setPaginationHeaders(c, &repository.Page[int]{Size: 20})
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "http://example.com/api/things", nil))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Header.Get("X-Total-Count"))
	link := resp.Header.Get(fiber.HeaderLink)
	assert.Contains(t, link, `page=0&size=20>; rel="last"`)
	assert.NotContains(t, link, "next")
	assert.NotContains(t, link, "prev")
}

func TestSetAlert(t *testing.T) {
	s := &Server{config: &config.Config{}}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		s.setAlert(c, "post", "created", "12")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "ngelmakApp.post.created", resp.Header.Get("X-ngelmakApp-alert"))
	assert.Equal(t, "12", resp.Header.Get("X-ngelmakApp-params"))
}

func TestCheckIDs(t *testing.T) {
	assert.NoError(t, checkCreateID("config", 0))
	assert.True(t, models.IsBadRequestAlert(checkCreateID("config", 4), models.ErrKeyIDExists))

	id := uint(3)
	zero := uint(0)
	assert.NoError(t, checkUpdateID("config", 3, &id))
	assert.NoError(t, checkUpdateID("config", 0, &id))
	assert.True(t, models.IsBadRequestAlert(checkUpdateID("config", 3, nil), models.ErrKeyIDNull))
	assert.True(t, models.IsBadRequestAlert(checkUpdateID("config", 3, &zero), models.ErrKeyIDNull))
	assert.True(t, models.IsBadRequestAlert(checkUpdateID("config", 4, &id), models.ErrKeyIDInvalid))
}

func TestParseID(t *testing.T) {
	s := &Server{config: &config.Config{}}
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, status := range map[string]int{
		"/things/5":   http.StatusOK,
		"/things/0":   http.StatusBadRequest,
		"/things/-2":  http.StatusBadRequest,
		"/things/abc": http.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, path)
	}
}

func TestParseBody_AcceptsMergePatch(t *testing.T) {
	s := &Server{config: &config.Config{}}
	app := fiber.New()
	app.Patch("/", func(c *fiber.Ctx) error {
		var body struct {
			Title string `json:"title"`
		}
		if err := s.parseBody(c, &body); err != nil {
			return nil
		}
		return c.SendString(body.Title)
	})

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"title":"merged"}`))
	req.Header.Set(fiber.HeaderContentType, "application/merge-patch+json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "merged", readBody(t, resp))

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"title":`))
	req.Header.Set(fiber.HeaderContentType, "application/merge-patch+json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRespondError_HidesUnexpectedErrors(t *testing.T) {
	s := &Server{config: &config.Config{}}
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return s.respondError(c, assert.AnError)
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return s.respondError(c, models.NewNotFoundError("post", 9))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decode[models.ErrorResponse](t, resp).Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
