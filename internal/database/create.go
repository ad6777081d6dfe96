package database

import (
	"context"
	"database/sql"
	"fmt"

	"ngelmak/internal/config"
	"ngelmak/internal/middleware"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// maintenanceDB is the database every PostgreSQL server carries.
const maintenanceDB = "postgres"

func createDatabaseSQL(name string) string {
	return "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
}

// CreateDatabase creates cfg.DBName through the maintenance database when it does not exist yet.
// It reports whether the database was created.
func CreateDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	sqlDB, err := sql.Open("pgx", DSN(cfg, maintenanceDB))
	if err != nil {
		return false, fmt.Errorf("open maintenance db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	var exists bool
	if err := sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup database %s: %w", cfg.DBName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := sqlDB.ExecContext(ctx, createDatabaseSQL(cfg.DBName)); err != nil {
		return false, fmt.Errorf("create database %s: %w", cfg.DBName, err)
	}
	middleware.Logger.Info("database created", "database", cfg.DBName)
	return true, nil
}
