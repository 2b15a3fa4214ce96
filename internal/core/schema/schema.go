// Package schema creates the company database and its tables.
package schema

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/duynhne/company-service/config"
)

//go:embed schema.sql
var schemaSQL string

// SQL returns the embedded schema script.
func SQL() string {
	return schemaSQL
}

// Executor is the subset of pgx shared by *pgx.Conn, the pool gateway and pgxmock.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const databaseExistsQuery = `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`

// EnsureDatabase creates the named database when it does not exist yet.
// db must be connected to another database (usually "postgres").
func EnsureDatabase(ctx context.Context, db Executor, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("ensure database: empty name")
	}

	var exists bool
	if err := db.QueryRow(ctx, databaseExistsQuery, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %q: %w", name, err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE takes no bind parameters; the identifier is quoted instead.
	stmt := "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
	if _, err := db.Exec(ctx, stmt); err != nil {
		return false, fmt.Errorf("create database %q: %w", name, err)
	}
	return true, nil
}

// EnsureSchema applies the embedded tables and indexes. Every statement is
// IF NOT EXISTS, so running it again is a no-op.
func EnsureSchema(ctx context.Context, db Executor) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Bootstrap connects to the maintenance database to create cfg.Name if needed,
// then connects to cfg.Name and applies the schema.
func Bootstrap(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error {
	admin, err := pgx.Connect(ctx, cfg.BuildMaintenanceDSN())
	if err != nil {
		return fmt.Errorf("connect to maintenance database %q: %w", cfg.MaintenanceName, err)
	}
	logger.Info("Connected to PostgreSQL", zap.String("database", cfg.MaintenanceName))

	created, err := EnsureDatabase(ctx, admin, cfg.Name)
	closeErr := admin.Close(ctx)
	if err != nil {
		return err
	}
	if closeErr != nil {
		logger.Warn("Failed to close maintenance connection", zap.Error(closeErr))
	}
	if created {
		logger.Info("Database created", zap.String("database", cfg.Name))
	} else {
		logger.Info("Database already exists", zap.String("database", cfg.Name))
	}

	conn, err := pgx.Connect(ctx, cfg.BuildDSN())
	if err != nil {
		return fmt.Errorf("connect to database %q: %w", cfg.Name, err)
	}
	defer conn.Close(ctx)

	if err := EnsureSchema(ctx, conn); err != nil {
		return err
	}
	logger.Info("Tables and indexes created/verified", zap.String("database", cfg.Name))
	return nil
}
