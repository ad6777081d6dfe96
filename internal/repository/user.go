package repository

import (
	"context"
	"strings"
	"time"

	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByActivationKey(ctx context.Context, key string) (*models.User, error)
	GetByResetKey(ctx context.Context, key string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	DeleteStaleUnactivated(ctx context.Context, before time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user and links its authorities.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save updates the user columns without touching authorities.
func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Authorities").Save(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.first(ctx, "login = ?", strings.ToLower(login))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) GetByActivationKey(ctx context.Context, key string) (*models.User, error) {
	return r.first(ctx, "activation_key = ?", key)
}

func (r *userRepository) GetByResetKey(ctx context.Context, key string) (*models.User, error) {
	return r.first(ctx, "reset_key = ?", key)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// DeleteStaleUnactivated drops never-activated registrations created before the cutoff.
func (r *userRepository) DeleteStaleUnactivated(ctx context.Context, before time.Time) (int64, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("activated = ? AND activation_key IS NOT NULL AND created_at < ?", false, before).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_authorities WHERE user_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, ids).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Authorities").Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthorityRepository defines the interface for authority data operations
type AuthorityRepository interface {
	Count(ctx context.Context) (int64, error)
	CreateAll(ctx context.Context, names ...string) error
	FindAll(ctx context.Context) ([]models.Authority, error)
}

type authorityRepository struct {
	db *gorm.DB
}

func NewAuthorityRepository(db *gorm.DB) AuthorityRepository {
	return &authorityRepository{db: db}
}

func (r *authorityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Authority{}).Count(&count).Error
	return count, err
}

func (r *authorityRepository) CreateAll(ctx context.Context, names ...string) error {
	authorities := make([]models.Authority, 0, len(names))
	for _, name := range names {
		authorities = append(authorities, models.Authority{Name: name})
	}
	return r.db.WithContext(ctx).Create(&authorities).Error
}

func (r *authorityRepository) FindAll(ctx context.Context) ([]models.Authority, error) {
	var authorities []models.Authority
	err := r.db.WithContext(ctx).Order("name").Find(&authorities).Error
	return authorities, err
}
