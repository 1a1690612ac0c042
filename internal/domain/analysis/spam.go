package analysis

import (
	"regexp"
	"strings"
)

var (
	spamWord    = regexp.MustCompile(`(?i)\bspam\b`)
	spamSpaced  = regexp.MustCompile(`(?i)\bs\s*p\s*a\s*m\b`)
	spamLoose   = regexp.MustCompile(`(?i)(?:\$|\b[s5])\s*p\s*[a@4]\s*(?:rn|[mnr])\b`)
	synonymWord = regexp.MustCompile(`(?i)\b(?:scam|junk|fraud)\b`)
)

var synonyms = []string{"scam", "junk", "fraud"}

// IsSpam runs the detection layers in order and stops at the first hit.
// The loose layer trades precision for recall on purpose.
func IsSpam(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if spamWord.MatchString(raw) || spamSpaced.MatchString(raw) || spamLoose.MatchString(raw) {
		return true
	}

	normalized := Normalize(raw)
	if strings.Contains(normalized, "spam") {
		return true
	}

	if synonymWord.MatchString(raw) {
		return true
	}
	for _, w := range synonyms {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}
