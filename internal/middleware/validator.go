package middleware

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

const maxFieldLength = 255

// ValidateScreenshotID checks that id is a UUID as issued on upload.
func ValidateScreenshotID(id string) error {
	if id == "" {
		return fmt.Errorf("screenshot ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid screenshot ID format")
	}
	return nil
}

// ValidateEmail accepts a bare address only.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeField cleans free-text metadata like toNumber and carrier and
// caps its length.
func SanitizeField(input string) string {
	s := SanitizeString(strings.ReplaceAll(input, "\n", " "))
	if r := []rune(s); len(r) > maxFieldLength {
		s = string(r[:maxFieldLength])
	}
	return s
}

// ParseTime accepts RFC3339 or unix milliseconds. Empty means zero time.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339 or unix milliseconds)", raw)
}

// ValidatePage validates pagination page
func ValidatePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// Pagination reads page and limit query params with defaults applied.
func Pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return ValidatePage(page), ValidateLimit(limit)
}
