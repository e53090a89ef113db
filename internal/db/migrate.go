package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/amirphl/simple-ta/internal/utils"
	"github.com/lib/pq"
)

// Migrate creates the database named in connStr if it doesn't exist and applies Schema.
// connStr must be a postgres:// URL.
func Migrate(ctx context.Context, connStr string) error {
	log := utils.Component("db")

	adminConnStr, dbName, err := adminConnString(connStr)
	if err != nil {
		return err
	}

	baseDB, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer baseDB.Close()

	var exists bool
	err = baseDB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		log.Info().Str("database", dbName).Msg("creating database")
		if _, err = baseDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := ApplySchema(ctx, db, Schema); err != nil {
		return err
	}
	log.Info().Str("database", dbName).Msg("database migrations completed")
	return nil
}

// adminConnString points connStr at the postgres maintenance database and
// returns the original database name.
func adminConnString(connStr string) (string, string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", "", errors.New("connection string must be a postgres:// URL")
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", "", errors.New("database name not found in connection string")
	}

	admin := *u
	admin.Path = "/postgres"
	return admin.String(), dbName, nil
}
