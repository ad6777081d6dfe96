package service

import (
	"context"
	"errors"
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"

	"gorm.io/gorm"
)

type AccountService struct {
	crudService[models.Account]
	accounts repository.AccountRepository
	configs  repository.ConfigRepository
	users    repository.UserRepository
	now      func() time.Time
}

// CreateAccountInput is what a user chooses when opening an account.
type CreateAccountInput struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Visibility  models.Accessibility `json:"visibility"`
}

func NewAccountService(
	accounts repository.AccountRepository,
	configs repository.ConfigRepository,
	users repository.UserRepository,
) *AccountService {
	return &AccountService{
		crudService: crudService[models.Account]{repo: accounts, entity: EntityAccount},
		accounts:    accounts,
		configs:     configs,
		users:       users,
		now:         time.Now,
	}
}

// Create opens an account for userID with a fresh default configuration.
func (s *AccountService) Create(ctx context.Context, userID uint, in CreateAccountInput) (*models.Account, error) {
	middleware.Logger.InfoContext(ctx, "request to save account", "name", in.Name)
	if userID == 0 {
		return nil, models.NewBadRequestAlert(EntityAccount, models.ErrKeyUserNotFound, "A new account should always be attached to a user")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewBadRequestAlert(EntityAccount, models.ErrKeyUserNotFound, "A new account should always be attached to a user")
		}
		return nil, err
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		return nil, models.NewValidationError("invalid visibility")
	}
	if in.Name == "" {
		return nil, models.NewValidationError("name is required")
	}

	now := s.now()
	cfg := models.NewDefaultConfig(now)
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:            in.Name,
		Description:     in.Description,
		Visibility:      in.Visibility,
		CreatedAt:       now,
		ConfigurationID: cfg.ID,
		Configuration:   cfg,
		UserID:          &userID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update replaces the stored account. Ownership, configuration and creation
// time are kept when the body leaves them out.
func (s *AccountService) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.Visibility != "" && !account.Visibility.Valid() {
		return nil, models.NewValidationError("invalid visibility")
	}
	err := s.replace(ctx, account.ID, account, func(stored, incoming *models.Account) {
		if incoming.ConfigurationID == 0 {
			incoming.ConfigurationID = stored.ConfigurationID
		}
		if incoming.UserID == nil {
			incoming.UserID = stored.UserID
		}
		if incoming.CreatedAt.IsZero() {
			incoming.CreatedAt = stored.CreatedAt
		}
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) PartialUpdate(ctx context.Context, id uint, p *AccountPatch) (*models.Account, error) {
	return s.patch(ctx, id, p.apply)
}

// Current returns the account owned by userID.
func (s *AccountService) Current(ctx context.Context, userID uint) (*models.Account, error) {
	middleware.Logger.DebugContext(ctx, "request to get account of current user")
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, EntityAccount, "current-user")
	}
	return account, nil
}
