// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"time"

	"ngelmak/internal/featureflags"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"

	"gorm.io/gorm"
)

// Entity names carried by bad-request alerts.
const (
	EntityAccount    = "ngelmakAccount"
	EntityConfig     = "config"
	EntityPost       = "post"
	EntityAttachment = "attachment"
	EntityComment    = "comment"
	EntityTicket     = "ticket"
	EntityReview     = "review"
	EntityMembership = "membership"
	EntityUser       = "userManagement"
)

// EventPublisher delivers realtime domain events to users.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload any, userIDs ...uint) error
}

// events publishes best-effort: failures are logged, never returned.
type events struct {
	publisher EventPublisher
	flags     *featureflags.Manager
}

func (e events) publish(ctx context.Context, eventType string, payload any, userIDs ...uint) {
	if e.publisher == nil || len(userIDs) == 0 || !e.flags.EnabledGlobally(featureflags.Realtime) {
		return
	}
	if err := e.publisher.PublishEvent(ctx, eventType, payload, userIDs...); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event", "event", eventType, "error", err)
	}
}

func notFoundOr(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(entity, id)
	}
	return err
}

func idNotFound(entity string) error {
	return models.NewBadRequestAlert(entity, models.ErrKeyIDNotFound, "Entity not found")
}

// crudService is the lookup and persistence surface every entity shares.
type crudService[T any] struct {
	repo   repository.CRUDRepository[T]
	entity string
}

func (s crudService[T]) Get(ctx context.Context, id uint) (*T, error) {
	middleware.Logger.DebugContext(ctx, "request to get "+s.entity, "id", id)
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, s.entity, id)
	}
	return e, nil
}

func (s crudService[T]) List(ctx context.Context, req repository.PageRequest) (*repository.Page[T], error) {
	middleware.Logger.DebugContext(ctx, "request to get a page of "+s.entity)
	page, err := s.repo.FindPage(ctx, req)
	if errors.Is(err, repository.ErrInvalidSort) {
		return nil, models.NewValidationError(err.Error())
	}
	return page, err
}

func (s crudService[T]) Delete(ctx context.Context, id uint) error {
	middleware.Logger.DebugContext(ctx, "request to delete "+s.entity, "id", id)
	return s.repo.Delete(ctx, id)
}

func (s crudService[T]) create(ctx context.Context, e *T) error {
	middleware.Logger.DebugContext(ctx, "request to save "+s.entity)
	return s.repo.Create(ctx, e)
}

// replace overwrites the stored row id with e. merge may carry over stored
// values e leaves empty or must not change.
func (s crudService[T]) replace(ctx context.Context, id uint, e *T, merge func(stored, incoming *T)) error {
	middleware.Logger.DebugContext(ctx, "request to update "+s.entity, "id", id)
	stored, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return idNotFound(s.entity)
	}
	if err != nil {
		return err
	}
	if merge != nil {
		merge(stored, e)
	}
	return s.repo.Save(ctx, e)
}

// patch loads id, lets apply change it and saves the result.
func (s crudService[T]) patch(ctx context.Context, id uint, apply func(*T) error) (*T, error) {
	middleware.Logger.DebugContext(ctx, "request to partially update "+s.entity, "id", id)
	e, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, idNotFound(s.entity)
	}
	if err != nil {
		return nil, err
	}
	if err := apply(e); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func orNow(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
