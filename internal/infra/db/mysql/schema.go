package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQL has no CREATE INDEX IF NOT EXISTS, so the owner index lives in the table definition.
var schema = []string{`
CREATE TABLE IF NOT EXISTS analyzed_screenshots (
  id               VARCHAR(64)  NOT NULL PRIMARY KEY,
  owner_user_id    VARCHAR(64)  NOT NULL,
  owner_email      VARCHAR(255) NOT NULL,
  owner_name       VARCHAR(255) NOT NULL,
  image_url        TEXT         NOT NULL,
  extracted_number VARCHAR(255) NOT NULL DEFAULT 'Not Found',
  submitted_at     DATETIME(3)  NOT NULL,
  to_number        VARCHAR(255) NOT NULL DEFAULT 'Unknown',
  carrier          VARCHAR(255) NOT NULL DEFAULT 'Unknown',
  is_spam          BOOLEAN      NOT NULL DEFAULT FALSE,
  is_deleted       BOOLEAN      NOT NULL DEFAULT FALSE,
  deleted_at       DATETIME(3)  NULL,
  analyzed_at      DATETIME(3)  NOT NULL,
  INDEX idx_screenshots_owner_active (owner_user_id, is_deleted, submitted_at DESC),
  INDEX idx_screenshots_email (owner_email, is_deleted),
  INDEX idx_screenshots_deleted (is_deleted, deleted_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql migrate: %w", err)
		}
	}
	return nil
}
