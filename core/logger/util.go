package logger

import (
	"strings"
	"time"
)

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit items with commas and reports whether
// the list was cut.
func SummarizeStrings(items []string, limit int) (string, bool) {
	if len(items) == 0 || limit <= 0 {
		return "", len(items) > 0
	}
	if len(items) <= limit {
		return strings.Join(items, ","), false
	}
	return strings.Join(items[:limit], ","), true
}
