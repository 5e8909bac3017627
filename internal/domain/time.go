package domain

import (
	"strings"
	"time"
)

// publishedAtLayouts lists the timestamp formats the ingestion pipeline is
// known to emit. RFC 3339 covers ISO-8601 strings with a trailing Z.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublishedAt parses a stored publish timestamp. It returns ok=false on
// malformed input; callers treat that as "unknown" rather than an error.
func ParsePublishedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range publishedAtLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}
