package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analyzed_screenshots (
  id               VARCHAR(64)  PRIMARY KEY,
  owner_user_id    VARCHAR(64)  NOT NULL,
  owner_email      VARCHAR(255) NOT NULL,
  owner_name       VARCHAR(255) NOT NULL,
  image_url        TEXT         NOT NULL,
  extracted_number VARCHAR(255) NOT NULL DEFAULT 'Not Found',
  submitted_at     TIMESTAMPTZ  NOT NULL,
  to_number        VARCHAR(255) NOT NULL DEFAULT 'Unknown',
  carrier          VARCHAR(255) NOT NULL DEFAULT 'Unknown',
  is_spam          BOOLEAN      NOT NULL DEFAULT FALSE,
  is_deleted       BOOLEAN      NOT NULL DEFAULT FALSE,
  deleted_at       TIMESTAMPTZ  NULL,
  analyzed_at      TIMESTAMPTZ  NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_owner_active ON analyzed_screenshots (owner_user_id, is_deleted, submitted_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_email ON analyzed_screenshots (owner_email, is_deleted)`,
	`CREATE INDEX IF NOT EXISTS idx_screenshots_deleted ON analyzed_screenshots (is_deleted, deleted_at DESC)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
