package repository

import (
	"context"

	"ngelmak/internal/cache"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// ConfigRepository defines the interface for account configuration data operations
type ConfigRepository interface {
	CRUDRepository[models.Config]
	FindAllWithoutAccount(ctx context.Context) ([]models.Config, error)
}

type configRepository struct {
	*crudRepository[models.Config]
}

func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{newCRUDRepository[models.Config](db)}
}

func (r *configRepository) GetByID(ctx context.Context, id uint) (*models.Config, error) {
	var cfg models.Config
	err := cache.Aside(ctx, cache.ConfigKey(id), &cfg, cache.ConfigTTL, func() error {
		return r.db.WithContext(ctx).First(&cfg, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *configRepository) Save(ctx context.Context, cfg *models.Config) error {
	if err := r.crudRepository.Save(ctx, cfg); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.ConfigKey(cfg.ID))
	r.invalidateOwner(ctx, cfg.ID)
	return nil
}

func (r *configRepository) Delete(ctx context.Context, id uint) error {
	r.invalidateOwner(ctx, id)
	if err := r.crudRepository.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.ConfigKey(id))
	return nil
}

// invalidateOwner drops the cached account embedding configuration id.
func (r *configRepository) invalidateOwner(ctx context.Context, id uint) {
	var owner struct {
		ID     uint
		UserID *uint
	}
	err := r.db.WithContext(ctx).Table("ngelmak_accounts").
		Select("id", "user_id").
		Where("configuration_id = ?", id).
		Limit(1).
		Scan(&owner).Error
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to look up account of config", "config_id", id, "error", err)
		return
	}
	if owner.ID != 0 {
		cache.InvalidateAccount(ctx, owner.ID, owner.UserID)
	}
}

// FindAllWithoutAccount lists the configurations no account points at.
func (r *configRepository) FindAllWithoutAccount(ctx context.Context) ([]models.Config, error) {
	var configs []models.Config
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM ngelmak_accounts a WHERE a.configuration_id = configs.id)").
		Order("id").
		Find(&configs).Error
	return configs, err
}
