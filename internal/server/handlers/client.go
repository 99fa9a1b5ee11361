package handlers

import (
	"net/http"
	"strings"
)

// ClientIdentifier derives the admission identifier for r from header.
//
// Only the first comma-separated entry is used, so proxies appending their
// own hop do not split one client into many. The value is not authenticated:
// any caller can set it, and callers without it share fallback.
func ClientIdentifier(r *http.Request, header, fallback string) string {
	raw := r.Header.Get(header)
	first, _, _ := strings.Cut(raw, ",")
	if id := strings.TrimSpace(first); id != "" {
		return id
	}
	return fallback
}
