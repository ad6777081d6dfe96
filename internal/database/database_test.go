package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"ngelmak/internal/config"
	"ngelmak/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = configurePool(db, &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestAutoMigrate_CreatesDomainTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		"authorities", "users", "user_authorities", "configs", "ngelmak_accounts",
		"posts", "attachments", "comments", "tickets", "reviews", "memberships",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.Ticket{}, "issuedby_id"))
	assert.True(t, db.Migrator().HasColumn(&models.Attachment{}, "deleted_at"))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		wantSQL     bool
		wantAuto    bool
		expectError bool
	}{
		{"hybrid in development", config.Config{Env: "development"}, true, true, false},
		{"hybrid in production", config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"sql only", config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"auto refused in production", config.Config{Env: "prod", DBSchemaMode: "auto"}, false, false, true},
		{"auto allowed when destructive flag set", config.Config{Env: "prod", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"unknown mode", config.Config{DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_add_index.up.sql":   {Data: []byte("CREATE INDEX x ON posts (at);")},
		"m/000002_add_index.down.sql": {Data: []byte("DROP INDEX x;")},
		"m/000001_init.up.sql":        {Data: []byte("CREATE TABLE posts (id INT);")},
		"m/000001_init.down.sql":      {Data: []byte("DROP TABLE posts;")},
		"m/README.md":                 {Data: []byte("ignored")},
	}

	loaded, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, loaded[0].Version)
	assert.Equal(t, "init", loaded[0].Name)
	assert.Equal(t, "000002_add_index", loaded[1].String())
	assert.Equal(t, "DROP INDEX x;", loaded[1].DownScript)
}

func TestLoadMigrations_MissingDownScript(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_init.up.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsRegistered(t *testing.T) {
	m := GetMigrationByVersion(1)
	require.NotNil(t, m)
	assert.Equal(t, "init_schema", m.Name)
	assert.Contains(t, m.UpScript, "CREATE TABLE IF NOT EXISTS ngelmak_accounts")
}

type fakeMigrationStore struct {
	applied []int
	ran     []int
	failOn  int
	getErr  error
}

func (f *fakeMigrationStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, f.getErr
}

func (f *fakeMigrationStore) ApplyMigration(_ context.Context, m Migration) error {
	if m.Version == f.failOn {
		return errors.New("syntax error")
	}
	f.ran = append(f.ran, m.Version)
	return nil
}

func (f *fakeMigrationStore) RevertMigration(context.Context, Migration) error {
	return nil
}

func TestRunPending(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	t.Run("applies only pending in order", func(t *testing.T) {
		store := &fakeMigrationStore{applied: []int{1}}
		require.NoError(t, runPending(context.Background(), store, registered))
		assert.Equal(t, []int{2, 3}, store.ran)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		store := &fakeMigrationStore{failOn: 2}
		err := runPending(context.Background(), store, registered)
		assert.Error(t, err)
		assert.Equal(t, []int{1}, store.ran)
	})

	t.Run("rejects unknown applied versions", func(t *testing.T) {
		store := &fakeMigrationStore{applied: []int{1, 9}}
		err := runPending(context.Background(), store, registered)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "000009")
		assert.Empty(t, store.ran)
	})
}

func TestCreateDatabaseSQL_QuotesName(t *testing.T) {
	assert.Equal(t, `CREATE DATABASE "ngelmak"`, createDatabaseSQL("ngelmak"))
	assert.Equal(t, `CREATE DATABASE "odd""name"`, createDatabaseSQL(`odd"name`))
}
