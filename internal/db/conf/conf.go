// Package conf creates throwaway PostgreSQL databases for tests.
package conf

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/amirphl/simple-ta/internal/db"
	_ "github.com/lib/pq"
)

// Config holds test database connection and metadata
type Config struct {
	Name    string
	DB      *sql.DB
	ConnStr string
	AdminDB *sql.DB
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewTestConfig creates a new database with a random name and applies db.Schema.
// The test is skipped when PostgreSQL is not reachable. Connection settings come
// from TEST_PG_HOST, TEST_PG_PORT, TEST_PG_USER and TEST_PG_PASSWORD.
func NewTestConfig(t *testing.T) (*Config, func()) {
	t.Helper()

	host := env("TEST_PG_HOST", "localhost")
	port := env("TEST_PG_PORT", "5432")
	user := env("TEST_PG_USER", "postgres")
	password := env("TEST_PG_PASSWORD", "postgres")

	adminConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		host, port, user, password)

	adminDB, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	if err = adminDB.Ping(); err != nil {
		adminDB.Close()
		t.Skipf("Skipping test: PostgreSQL is not running or not accessible: %v", err)
		return nil, func() {}
	}

	dbName := fmt.Sprintf("test_ta_%d", rand.Int31())
	if _, err = adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		adminDB.Close()
		t.Fatalf("Failed to create test database: %v", err)
	}

	dbConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)

	testDB, err := sql.Open("postgres", dbConnStr)
	if err != nil {
		adminDB.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	var available bool
	if err = testDB.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_available_extensions WHERE name = 'timescaledb')").Scan(&available); err != nil {
		t.Logf("Warning: Failed to check for TimescaleDB extension: %v", err)
	}
	if available {
		if _, err = testDB.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE"); err != nil {
			t.Logf("Warning: Failed to create TimescaleDB extension: %v", err)
		}
	}

	if err = db.ApplySchema(context.Background(), testDB, db.Schema); err != nil {
		testDB.Close()
		adminDB.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	cleanup := func() {
		testDB.Close()
		if _, err := adminDB.Exec(fmt.Sprintf("DROP DATABASE %s WITH (FORCE)", dbName)); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
		}
		adminDB.Close()
	}

	return &Config{
		Name:    dbName,
		DB:      testDB,
		ConnStr: dbConnStr,
		AdminDB: adminDB,
	}, cleanup
}
