package repository

import (
	"context"
	"errors"

	"ngelmak/internal/cache"
	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	CRUDRepository[models.Account]
	GetByUserID(ctx context.Context, userID uint) (*models.Account, error)
}

type accountRepository struct {
	*crudRepository[models.Account]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{newCRUDRepository[models.Account](db)}
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := cache.Aside(ctx, cache.AccountKey(id), &account, cache.AccountTTL, func() error {
		return r.db.WithContext(ctx).Preload("Configuration").First(&account, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByUserID(ctx context.Context, userID uint) (*models.Account, error) {
	var account models.Account
	err := cache.Aside(ctx, cache.UserAccountKey(userID), &account, cache.AccountTTL, func() error {
		return r.db.WithContext(ctx).Preload("Configuration").Where("user_id = ?", userID).First(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.crudRepository.Create(ctx, account); err != nil {
		return err
	}
	cache.InvalidateAccount(ctx, account.ID, account.UserID)
	return nil
}

func (r *accountRepository) Save(ctx context.Context, account *models.Account) error {
	if err := r.crudRepository.Save(ctx, account); err != nil {
		return err
	}
	cache.InvalidateAccount(ctx, account.ID, account.UserID)
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("id", "user_id").First(&account, id).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := r.crudRepository.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateAccount(ctx, id, account.UserID)
	return nil
}
