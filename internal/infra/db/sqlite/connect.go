package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connect opens a sqlite database. A single connection keeps ":memory:"
// databases alive and serializes writers.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analyzed_screenshots (
  id               TEXT     PRIMARY KEY,
  owner_user_id    TEXT     NOT NULL,
  owner_email      TEXT     NOT NULL,
  owner_name       TEXT     NOT NULL,
  image_url        TEXT     NOT NULL,
  extracted_number TEXT     NOT NULL DEFAULT 'Not Found',
  submitted_at     DATETIME NOT NULL,
  to_number        TEXT     NOT NULL DEFAULT 'Unknown',
  carrier          TEXT     NOT NULL DEFAULT 'Unknown',
  is_spam          BOOLEAN  NOT NULL DEFAULT 0,
  is_deleted       BOOLEAN  NOT NULL DEFAULT 0,
  deleted_at       DATETIME NULL,
  analyzed_at      DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_owner_active ON analyzed_screenshots (owner_user_id, is_deleted, submitted_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_email ON analyzed_screenshots (owner_email, is_deleted)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_deleted ON analyzed_screenshots (is_deleted, deleted_at DESC)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// Open connects and migrates in one step.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
