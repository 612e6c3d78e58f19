// Package core implements the expense domain: record parsing, type-agnostic
// aggregation and the insights report. Everything here is pure computation
// over an in-memory snapshot; persistence and transport live elsewhere.
package core

import (
	"errors"
	"fmt"
	"time"
)

// Local is the fixed display offset (UTC+5:30) used for grouping keys.
// Stored instants are always UTC; there are no DST rules to apply.
var Local = time.FixedZone("IST", 5*3600+30*60)

const (
	monthKeyLayout = "Jan 2006"
	readableLayout = "Jan 02, 2006 03:04 PM"
)

// ErrBadTimestamp reports a created_at value that is not a recognizable
// ISO-8601 instant. Callers match it with errors.Is.
var ErrBadTimestamp = errors.New("invalid timestamp")

// instantLayouts are the accepted created_at shapes. The bot writes
// zone-less instants, imported data may carry offsets; both are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses a stored created_at string into a UTC instant.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// MonthKey returns the grouping label for the local calendar month,
// e.g. "Feb 2024". The label parses back via ParseMonthKey, which is how
// chronological sorting of labels works.
func MonthKey(t time.Time) string {
	return t.In(Local).Format(monthKeyLayout)
}

// ParseMonthKey parses a MonthKey label back into the first instant of that
// month. Labels not produced by MonthKey are an error.
func ParseMonthKey(s string) (time.Time, error) {
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t, nil
}

// WeekdayName returns the English weekday of the local civil date.
func WeekdayName(t time.Time) string {
	return t.In(Local).Weekday().String()
}

// FormatReadable renders an instant for human display in local time.
func FormatReadable(t time.Time) string {
	return t.In(Local).Format(readableLayout)
}
