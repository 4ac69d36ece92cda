package analytics

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006/01/02",
	"01/02/2006",
}

// ParseDate reads a member date field. Only the calendar date is kept; the
// result is midnight UTC of the date as written.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// dateOf truncates t to its calendar date in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// birthdayIn places a birthday in the given year. Feb 29 falls on Mar 1 in
// non-leap years.
func birthdayIn(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
