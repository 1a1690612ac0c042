package analysis

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\s\-()]{7,}`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// ExtractPhone returns the first phone-shaped substring of raw with
// whitespace collapsed, or "Not Found".
func ExtractPhone(raw string) string {
	m := phonePattern.FindString(raw)
	if m == "" {
		return NumberNotFound
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(m, " "))
}

// NumberNotFound mirrors screenshots.NumberNotFound so this package stays
// free of the aggregate.
const NumberNotFound = "Not Found"
