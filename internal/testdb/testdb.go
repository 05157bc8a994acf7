// AngelaMos | 2026
// testdb.go

// Package testdb opens a migrated Postgres database for repository tests.
// Tests are skipped unless TEST_DATABASE_URL points at a postgres:// URL.
package testdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/migrations"
)

const EnvURL = "TEST_DATABASE_URL"

// Open connects to a throwaway schema with every migration applied. The
// schema is dropped when the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	raw := os.Getenv(EnvURL)
	if raw == "" {
		t.Skipf("%s not set", EnvURL)
	}

	ctx := context.Background()
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin := connect(t, ctx, raw)
	if _, err := admin.DB.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.DB.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close()
	})

	scoped, err := withSearchPath(raw, schema)
	if err != nil {
		t.Fatalf("%s: %v", EnvURL, err)
	}

	db := connect(t, ctx, scoped)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(ctx, db.DB, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return db.DB
}

// InsertUser adds a bare user row for tables that reference users.
func InsertUser(t *testing.T, db *sqlx.DB, name string) string {
	t.Helper()

	id := core.NewID()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`,
		id, name+"-"+id+"@example.com", name,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func connect(t *testing.T, ctx context.Context, dsn string) *core.Database {
	t.Helper()

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return db
}

func withSearchPath(raw, schema string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("want a postgres:// url, got scheme %q", u.Scheme)
	}

	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
