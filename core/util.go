package core

import (
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// DateLayout is the month/day/year form used by class files and gradebooks.
const DateLayout = "1/2/2006"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// UsernameFromEmail derives the LMS username from an institutional email address.
// Staff addresses carry a dot in the local part that the login does not.
func UsernameFromEmail(email string) string {
	uname := CleanString(email, true /* lower */)
	if at := strings.Index(uname, "@"); at != -1 {
		uname = strings.ReplaceAll(uname[:at], ".", "")
	}
	return uname
}

// ValidUsername reports whether `uname` can be a login: not blank, no "@" and no whitespace.
func ValidUsername(uname string) bool {
	return uname != "" && !strings.ContainsRune(uname, '@') &&
		strings.IndexFunc(uname, unicode.IsSpace) == -1
}

// TrimLeadingZeros renders a student id the way the LMS stores it.
func TrimLeadingZeros(sid string) string {
	trimmed := strings.TrimLeft(sid, "0")
	if trimmed == "" && sid != "" {
		return "0"
	}
	return trimmed
}

// ParseDate parses a month/day/year date as a wall-clock time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, CleanString(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q (want month/day/year)", s)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WallClock drops the location of `t`, keeping its local reading.
// Telemetry timestamps and term dates carry no zone, so everything is compared in wall-clock UTC.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// EndOfDay returns the last second of the day of `t`.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
