package tui

import (
	"strings"
	"time"
)

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// repeat creates a string by repeating s n times
func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// formatUpdated renders a lastUpdatedAt timestamp (milliseconds)
func formatUpdated(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("Jan 2 15:04")
}
