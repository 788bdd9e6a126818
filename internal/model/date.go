package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChatDate is a calendar day with no time of day or zone
type ChatDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseChatDate parses YYYY-MM-DD by its integer components
func ParseChatDate(s string) (ChatDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return ChatDate{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return ChatDate{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
		nums[i] = n
	}

	d := ChatDate{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	if d.Month < time.January || d.Month > time.December {
		return ChatDate{}, fmt.Errorf("date %q: month out of range", s)
	}
	if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
		return ChatDate{}, fmt.Errorf("date %q: day out of range", s)
	}
	return d, nil
}

// Today returns the local calendar day of now
func Today(now time.Time) ChatDate {
	y, m, d := now.Date()
	return ChatDate{Year: y, Month: m, Day: d}
}

// String formats the date as zero-padded YYYY-MM-DD
func (d ChatDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// NormalizeChatDate returns the canonical form of s, or today's date when
// s cannot be parsed.
func NormalizeChatDate(s string, now time.Time) string {
	d, err := ParseChatDate(s)
	if err != nil {
		return Today(now).String()
	}
	return d.String()
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one; UTC keeps DST out of it.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
