package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
)

// orDefault returns def when the input is empty/whitespace
func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
