package services

import (
	"net/http"
	"strings"
	"time"
)

// defaultHTTPClient is shared by the outbound proxies; every upstream call is
// bounded by this timeout.
var defaultHTTPClient = &http.Client{Timeout: 20 * time.Second}

// joinURL concatenates a base URL and a path without doubling the slash.
func joinURL(base, path string) string {
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/"):
		return strings.TrimSuffix(base, "/") + path
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(path, "/"):
		return base + "/" + path
	default:
		return base + path
	}
}
