// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrInvalidSort is returned when a sort property does not map to a column.
var ErrInvalidSort = errors.New("invalid sort property")

// SortOrder orders a page by one JSON property.
type SortOrder struct {
	Property string
	Desc     bool
}

// PageRequest selects one zero-based page.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Normalize clamps the request into the supported bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

// TotalPages is the number of pages needed for Total items.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// CRUDRepository is the persistence contract shared by every entity.
type CRUDRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Save(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uint) (*T, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	FindPage(ctx context.Context, req PageRequest) (*Page[T], error)
}

type crudRepository[T any] struct {
	db      *gorm.DB
	columns map[string]string
}

func newCRUDRepository[T any](db *gorm.DB) *crudRepository[T] {
	return &crudRepository[T]{db: db, columns: sortableColumns[T](db)}
}

// sortableColumns maps JSON property names and Go field names onto column names.
func sortableColumns[T any](db *gorm.DB) map[string]string {
	columns := make(map[string]string)
	s, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return columns
	}
	for _, field := range s.Fields {
		if field.DBName == "" {
			continue
		}
		columns[field.Name] = field.DBName
		columns[field.DBName] = field.DBName
		if name := strings.Split(field.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
			columns[name] = field.DBName
		}
	}
	return columns
}

func (r *crudRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

// Save writes every column of entity. Associations are persisted by their own repositories.
func (r *crudRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

func (r *crudRepository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *crudRepository[T]) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *crudRepository[T]) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(new(T), id).Error
}

func (r *crudRepository[T]) FindPage(ctx context.Context, req PageRequest) (*Page[T], error) {
	return r.findPage(ctx, req, nil)
}

func (r *crudRepository[T]) findPage(ctx context.Context, req PageRequest, scope func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	req = req.Normalize()

	orders, err := r.orderBy(req.Sort)
	if err != nil {
		return nil, err
	}

	base := r.db.WithContext(ctx).Model(new(T))
	if scope != nil {
		base = scope(base)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, req.Size)
	if err := base.Session(&gorm.Session{}).
		Clauses(clause.OrderBy{Columns: orders}).
		Limit(req.Size).
		Offset(req.Offset()).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
}

func (r *crudRepository[T]) orderBy(sort []SortOrder) ([]clause.OrderByColumn, error) {
	orders := make([]clause.OrderByColumn, 0, len(sort)+1)
	hasID := false
	for _, s := range sort {
		column, ok := r.columns[s.Property]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSort, s.Property)
		}
		hasID = hasID || column == "id"
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: s.Desc})
	}
	if !hasID {
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return orders, nil
}
