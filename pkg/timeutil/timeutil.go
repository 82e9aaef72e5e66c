package timeutil

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// HourLayout is the wire format for times of day.
	HourLayout = "15:04"
)

// ParseDate parses a strict YYYY-MM-DD date in the given location.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

// ParseHour parses a strict 24-hour HH:MM time of day and returns it as
// minutes since midnight. The hour must be zero-padded: "9:30" is rejected,
// stored hours are compared lexicographically.
func ParseHour(hour string) (int, error) {
	if len(hour) != len(HourLayout) {
		return 0, fmt.Errorf("invalid hour %q, expected HH:MM", hour)
	}
	t, err := time.Parse(HourLayout, hour)
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q, expected HH:MM", hour)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesToHour renders minutes since midnight back to HH:MM.
func MinutesToHour(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// At combines a parsed date with minutes since midnight into an instant
// in the date's location.
func At(date time.Time, mins int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), mins/60, mins%60, 0, 0, date.Location())
}

// FormatDate renders t as YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatHour renders t's time of day as HH:MM.
func FormatHour(t time.Time) string {
	return t.Format(HourLayout)
}
