// Package calendar handles the zone-less date and clock strings bookings
// are stored with. Every instant produced here is in UTC so that arithmetic
// between two values never crosses a DST boundary.
package calendar

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)
)

func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ParseDate reads a YYYY-MM-DD string as midnight UTC. Dates that do not
// exist (2024-02-30) are rejected.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%04d-%02d-%02d", &y, &m, &d); err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Weekday returns 0 (Sunday) to 6 (Saturday) for a YYYY-MM-DD string.
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// At combines a date and an HH:MM clock into one instant.
func At(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if !clockPattern.MatchString(clock) {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	var h, m int
	if _, err := fmt.Sscanf(clock, "%02d:%02d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func FormatClock(t time.Time) string {
	return t.UTC().Format(ClockLayout)
}

// AddDays shifts a YYYY-MM-DD string by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}
