package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from client-supplied plain text fields such as
// display names and chat messages.
func SanitizeText(input string) string {
	return strings.TrimSpace(strict.Sanitize(input))
}
