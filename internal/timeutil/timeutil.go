package timeutil

import (
	"log"
	"time"
)

// Location is the business timezone used to decide which calendar day
// "now" falls on. Defaults to UTC until SetLocation is called at startup.
var Location = time.UTC

// SetLocation loads the named IANA zone. Falls back to UTC if the zone
// database is unavailable.
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Time] Unknown timezone %q, using UTC: %v", name, err)
		Location = time.UTC
		return
	}
	Location = loc
}

// Now returns the current time in the business location
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current calendar date in the business location
func Today() time.Time {
	return DateOf(Now())
}

// Date builds a date-only value (midnight UTC). Out-of-range days normalise
// the way time.Date does; use ClampedDate when that is not wanted.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the clock from t, keeping the calendar day t shows in its
// own location. All ledger dates are stored this way so comparisons and day
// differences are free of DST and zone offsets.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate is Date with day limited to the last day of the month,
// so day 31 in April gives April 30 instead of May 1.
func ClampedDate(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return Date(year, month, day)
}

// StartOfMonth returns the first day of t's month
func StartOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// EndOfMonth returns the last day of t's month
func EndOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), DaysIn(t.Year(), t.Month()))
}

// AddMonths moves t by n calendar months, clamping the day to the target
// month's length (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return ClampedDate(first.Year(), first.Month(), t.Day())
}

// DaysBetween returns the whole days from a to b (negative if b is before a).
// Both values are reduced to their calendar dates first.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// IsMonthEnd reports whether t is the last day of its month
func IsMonthEnd(t time.Time) bool {
	return t.Day() == DaysIn(t.Year(), t.Month())
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	MonthLayout    = "2006-01"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)

// ParseDate parses a YYYY-MM-DD string strictly (2024-02-31 is rejected)
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
