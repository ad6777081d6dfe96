package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError answers with the status matching err. Unexpected errors are
// logged and hidden behind a generic internal error.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parsePageable reads page, size and sort query parameters.
// sort may repeat and has the form property[,asc|desc].
func parsePageable(c *fiber.Ctx) repository.PageRequest {
	req := repository.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", repository.DefaultPageSize),
	}
	for _, raw := range c.Context().QueryArgs().PeekMulti("sort") {
		parts := strings.Split(string(raw), ",")
		property := strings.TrimSpace(parts[0])
		if property == "" {
			continue
		}
		order := repository.SortOrder{Property: property}
		if len(parts) > 1 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc") {
			order.Desc = true
		}
		req.Sort = append(req.Sort, order)
	}
	return req.Normalize()
}

// setPaginationHeaders writes X-Total-Count and an RFC 5988 Link header for page.
func setPaginationHeaders[T any](c *fiber.Ctx, page *repository.Page[T]) {
	c.Set("X-Total-Count", strconv.FormatInt(page.Total, 10))

	base := c.BaseURL() + c.Path()
	link := func(n int, rel string) string {
		return fmt.Sprintf(`<%s?page=%d&size=%d>; rel="%s"`, base, n, page.Size, rel)
	}

	last := max(page.TotalPages()-1, 0)
	var links []string
	if page.Page < last {
		links = append(links, link(page.Page+1, "next"))
	}
	if page.Page > 0 && page.Page <= last+1 {
		links = append(links, link(page.Page-1, "prev"))
	}
	links = append(links, link(last, "last"), link(0, "first"))
	c.Set(fiber.HeaderLink, strings.Join(links, ","))
}

func (s *Server) appName() string {
	if s.config.AppName == "" {
		return "ngelmakApp"
	}
	return s.config.AppName
}

// setAlert tells the client application which entity event happened.
func (s *Server) setAlert(c *fiber.Ctx, entity, action, param string) {
	app := s.appName()
	c.Set("X-"+app+"-alert", app+"."+entity+"."+action)
	c.Set("X-"+app+"-params", param)
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// checkCreateID rejects a create request carrying an id.
func checkCreateID(entity string, id uint) error {
	if id != 0 {
		return models.NewBadRequestAlert(entity, models.ErrKeyIDExists, "A new "+entity+" cannot already have an ID")
	}
	return nil
}

// checkUpdateID validates the body id of an update against the path id.
// pathID is zero when the route carries no id.
func checkUpdateID(entity string, pathID uint, bodyID *uint) error {
	if bodyID == nil || *bodyID == 0 {
		return models.NewBadRequestAlert(entity, models.ErrKeyIDNull, "Invalid id")
	}
	if pathID != 0 && pathID != *bodyID {
		return models.NewBadRequestAlert(entity, models.ErrKeyIDInvalid, "Invalid ID")
	}
	return nil
}

type entityGetter[T any] interface {
	Get(ctx context.Context, id uint) (*T, error)
}

type entityLister[T any] interface {
	List(ctx context.Context, req repository.PageRequest) (*repository.Page[T], error)
}

type entityDeleter interface {
	Delete(ctx context.Context, id uint) error
}

func getEntity[T any](s *Server, c *fiber.Ctx, svc entityGetter[T]) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	e, err := svc.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(e)
}

func listEntities[T any](s *Server, c *fiber.Ctx, svc entityLister[T]) error {
	page, err := svc.List(c.UserContext(), parsePageable(c))
	if err != nil {
		return s.respondError(c, err)
	}
	setPaginationHeaders(c, page)
	return c.JSON(page.Items)
}

func deleteEntity(s *Server, c *fiber.Ctx, svc entityDeleter, entity string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := svc.Delete(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, entity, "deleted", formatID(id))
	return c.SendStatus(fiber.StatusNoContent)
}

// parseBody decodes the request body into dst, answering 400 when it is malformed.
// Merge-patch bodies are JSON too.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	var err error
	ctype := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(ctype, "application/merge-patch+json") {
		err = json.Unmarshal(c.Body(), dst)
	} else {
		err = c.BodyParser(dst)
	}
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// createEntity runs the shared create flow: decode, reject a preset id, save, answer 201.
func createEntity[T any](s *Server, c *fiber.Ctx, entity, location string, idOf func(*T) uint, create func(context.Context, *T) (*T, error)) error {
	e := new(T)
	if err := s.parseBody(c, e); err != nil {
		return nil
	}
	if err := checkCreateID(entity, idOf(e)); err != nil {
		return s.respondError(c, err)
	}
	saved, err := create(c.UserContext(), e)
	if err != nil {
		return s.respondError(c, err)
	}
	id := formatID(idOf(saved))
	s.setAlert(c, entity, "created", id)
	c.Location(location + "/" + id)
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// updateEntity runs the shared PUT flow for routes carrying the id in the path.
func updateEntity[T any](s *Server, c *fiber.Ctx, entity string, idOf func(*T) uint, update func(context.Context, *T) (*T, error)) error {
	pathID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	e := new(T)
	if err := s.parseBody(c, e); err != nil {
		return nil
	}
	bodyID := idOf(e)
	if err := checkUpdateID(entity, pathID, &bodyID); err != nil {
		return s.respondError(c, err)
	}
	saved, err := update(c.UserContext(), e)
	if err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, entity, "updated", formatID(bodyID))
	return c.JSON(saved)
}

// patchBody is a merge-patch input repeating the target id.
type patchBody interface {
	BodyID() *uint
}

// patchEntity runs the shared PATCH flow. Absent or null fields keep their stored value.
func patchEntity[T any, P patchBody](s *Server, c *fiber.Ctx, entity string, p P, patch func(context.Context, uint, P) (*T, error)) error {
	pathID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.parseBody(c, p); err != nil {
		return nil
	}
	if err := checkUpdateID(entity, pathID, p.BodyID()); err != nil {
		return s.respondError(c, err)
	}
	saved, err := patch(c.UserContext(), pathID, p)
	if err != nil {
		return s.respondError(c, err)
	}
	s.setAlert(c, entity, "updated", formatID(pathID))
	return c.JSON(saved)
}
