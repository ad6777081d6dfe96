package bootstrap

import (
	"context"
	"testing"

	"ngelmak/internal/config"
	"ngelmak/internal/database"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestEnsureAuthorities_Idempotent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureAuthorities(ctx, db))
	require.NoError(t, EnsureAuthorities(ctx, db))

	authorities, err := repository.NewAuthorityRepository(db).FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Authority{{Name: models.RoleAdmin}, {Name: models.RoleAnonymous}, {Name: models.RoleUser}}, authorities)
}

func TestEnsureDefaultUsers(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	cfg := &config.Config{AdminPassword: "admin", UserPassword: "user"}

	require.NoError(t, EnsureAuthorities(ctx, db))
	require.NoError(t, EnsureDefaultUsers(ctx, db, cfg))
	require.NoError(t, EnsureDefaultUsers(ctx, db, cfg))

	users := repository.NewUserRepository(db)
	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	admin, err := users.GetByLogin(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.Activated)
	assert.True(t, admin.HasAuthority(models.RoleAdmin))
	assert.True(t, admin.HasAuthority(models.RoleUser))

	user, err := users.GetByLogin(ctx, "user")
	require.NoError(t, err)
	assert.False(t, user.HasAuthority(models.RoleAdmin))
}
