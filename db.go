package launcher

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var (
	dbOnce sync.Once
	dbConn *sql.DB
	dbErr  error
)

// schema is applied in order whenever a handle is opened. Statements must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS game_imports (
  id          TEXT PRIMARY KEY,
  game_id     TEXT NOT NULL DEFAULT '',
  source      TEXT NOT NULL,
  origin      TEXT NOT NULL DEFAULT '',
  branch      TEXT NOT NULL DEFAULT '',
  subdir      TEXT NOT NULL DEFAULT '',
  ok          BOOLEAN NOT NULL,
  error       TEXT NOT NULL DEFAULT '',
  imported_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS game_imports_imported_at ON game_imports (imported_at DESC)`,
}

// GetDB returns the shared Postgres handle, or (nil, nil) when DATABASE_URL is unset.
// The launcher runs fine without a database; it only mirrors import history there.
func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return
		}
		dbConn, dbErr = Open(context.Background(), dsn)
	})
	if dbErr != nil {
		return nil, dbErr
	}
	return dbConn, nil
}

// Open connects to dsn and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	// Simple protocol keeps PgBouncer-style poolers happy (no server-side prepared statements).
	config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	db := stdlib.OpenDB(*config)
	// Imports are rare; one connection is plenty.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(4 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the launcher schema to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
