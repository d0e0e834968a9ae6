package document

import (
	"strings"
	"time"
)

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublished parses an ISO-8601 timestamp. Values without a zone are read as UTC.
func ParsePublished(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeDays returns the whole number of days between published and now.
// The second return is false when the date is missing or unparseable.
func AgeDays(published string, now time.Time) (int, bool) {
	t, ok := ParsePublished(published)
	if !ok {
		return 0, false
	}
	hours := now.Sub(t).Hours()
	days := int(hours / 24)
	if hours < 0 && float64(days)*24 != hours {
		// floor toward negative infinity for future dates
		days--
	}
	return days, true
}

// RecencyBonus scores freshness: +10 up to 30 days old, +7 up to 90, +3 up to 365, else 0.
// Missing or unparseable dates get 0, never a penalty.
func RecencyBonus(published string, now time.Time) int {
	days, ok := AgeDays(published, now)
	if !ok {
		return 0
	}
	switch {
	case days <= 30:
		return 10
	case days <= 90:
		return 7
	case days <= 365:
		return 3
	default:
		return 0
	}
}

// WithinDays reports whether the document was published no more than days ago.
// Undated documents are never considered recent.
func WithinDays(published string, now time.Time, days int) bool {
	age, ok := AgeDays(published, now)
	if !ok {
		return false
	}
	return age <= days
}
