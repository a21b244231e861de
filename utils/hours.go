package utils

import (
	"regexp"
	"time"
)

// Default ordering window used when no per-day override exists.
const (
	DefaultOpenTime  = "07:00"
	DefaultCloseTime = "22:00"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidClock reports whether s is a valid "HH:MM" 24-hour clock string.
func IsValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// WithinWindow reports whether t falls inside [open, close) for the given
// "HH:MM" strings. The comparison is a literal string comparison, so the
// opening minute is included and the closing minute is not.
func WithinWindow(t time.Time, open, close string) bool {
	cur := t.Format("15:04")
	return cur >= open && cur < close
}
