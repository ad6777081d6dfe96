package bootstrap

import (
	"context"
	"fmt"

	"ngelmak/internal/cache"
	"ngelmak/internal/config"
	"ngelmak/internal/database"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"
	"ngelmak/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDefaultUsers bool
}

// InitRuntime connects to DB and Redis and seeds the security tables.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	ctx := context.Background()
	if err := EnsureAuthorities(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed authorities: %w", err)
	}
	if opts.SeedDefaultUsers {
		if err := EnsureDefaultUsers(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to seed default users: %w", err)
		}
	}

	return db, r, nil
}

// EnsureAuthorities creates the built-in roles when none exist.
func EnsureAuthorities(ctx context.Context, db *gorm.DB) error {
	repo := repository.NewAuthorityRepository(db)
	count, err := repo.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	middleware.Logger.Info("seeding authorities")
	return repo.CreateAll(ctx, models.RoleAdmin, models.RoleUser, models.RoleAnonymous)
}

// EnsureDefaultUsers creates the admin and user accounts on an empty user table.
func EnsureDefaultUsers(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	users := repository.NewUserRepository(db)
	count, err := users.Count(ctx)
	if err != nil || count > 0 {
		return err
	}

	svc := service.NewUserService(users, service.NewMailService(cfg.MailFrom, cfg.BaseURL))
	if _, err := svc.CreateUser(ctx, "admin", "admin@localhost", cfg.AdminPassword, models.RoleAdmin, models.RoleUser); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if _, err := svc.CreateUser(ctx, "user", "user@localhost", cfg.UserPassword, models.RoleUser); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	middleware.Logger.Info("seeded default users", "logins", []string{"admin", "user"})
	return nil
}
