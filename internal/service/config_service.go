package service

import (
	"context"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"
)

// ConfigFilterWithoutAccount selects configurations no account uses.
const ConfigFilterWithoutAccount = "ngelmakaccount-is-null"

type ConfigService struct {
	crudService[models.Config]
	configs repository.ConfigRepository
}

func NewConfigService(configs repository.ConfigRepository) *ConfigService {
	return &ConfigService{
		crudService: crudService[models.Config]{repo: configs, entity: EntityConfig},
		configs:     configs,
	}
}

func validateConfig(c *models.Config) error {
	if c.DefaultAccessibility != "" && !c.DefaultAccessibility.Valid() {
		return models.NewValidationError("invalid defaultAccessibility")
	}
	if c.DefaultVisibility != "" && !c.DefaultVisibility.Valid() {
		return models.NewValidationError("invalid defaultVisibility")
	}
	return nil
}

func (s *ConfigService) Create(ctx context.Context, c *models.Config) (*models.Config, error) {
	if err := validateConfig(c); err != nil {
		return nil, err
	}
	if err := s.create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ConfigService) Update(ctx context.Context, c *models.Config) (*models.Config, error) {
	if err := validateConfig(c); err != nil {
		return nil, err
	}
	if err := s.replace(ctx, c.ID, c, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ConfigService) PartialUpdate(ctx context.Context, id uint, p *ConfigPatch) (*models.Config, error) {
	return s.patch(ctx, id, p.apply)
}

// FindWithoutAccount lists every configuration not referenced by an account.
func (s *ConfigService) FindWithoutAccount(ctx context.Context) ([]models.Config, error) {
	middleware.Logger.DebugContext(ctx, "request to get all configs where account is null")
	return s.configs.FindAllWithoutAccount(ctx)
}
