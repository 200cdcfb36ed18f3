package utils

import (
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Clock supplies the current instant. Services read "now" through a Clock so
// day boundaries can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// StartOfUTCDay returns midnight UTC of the day containing t.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfUTCDay returns the last representable instant of the UTC day containing t.
func EndOfUTCDay(t time.Time) time.Time {
	return StartOfUTCDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ISOWeekday returns the UTC weekday of t numbered Monday=1 through Sunday=7.
func ISOWeekday(t time.Time) int {
	wd := t.UTC().Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// Days yields UTC midnights from StartOfUTCDay(from) to StartOfUTCDay(to) inclusive.
// The sequence is empty when to precedes from and may be ranged over repeatedly.
func Days(from, to time.Time) iter.Seq[time.Time] {
	start, end := StartOfUTCDay(from), StartOfUTCDay(to)
	return func(yield func(time.Time) bool) {
		// AddDate on the calendar date keeps every step on a UTC midnight
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if !yield(day) {
				return
			}
		}
	}
}

// DaysInRange counts the days Days(from, to) yields.
func DaysInRange(from, to time.Time) int {
	start, end := StartOfUTCDay(from), StartOfUTCDay(to)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return StartOfUTCDay(a).Equal(StartOfUTCDay(b))
}

// BetweenInclusive reports whether a <= t <= b.
func BetweenInclusive(t, a, b time.Time) bool {
	return !t.Before(a) && !t.After(b)
}

// FormatDay formats t's UTC calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD string as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// FromUnixMilli converts an epoch-millisecond timestamp to a UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ParseBound parses a range endpoint given either as YYYY-MM-DD or as an
// epoch-millisecond instant. exact reports the latter; a day is UTC midnight.
func ParseBound(s string) (t time.Time, exact bool, err error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromUnixMilli(ms), true, nil
	}
	t, err = ParseDay(s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date: %s (expected YYYY-MM-DD or epoch milliseconds)", s)
	}
	return t, false, nil
}

// FormatTimestamp renders t in the fixed-width storage layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp parses a stored timestamp, accepting RFC3339 for older rows.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(constants.TimestampFormat, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}
