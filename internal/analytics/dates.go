package analytics

import (
	"fmt"
	"time"
)

const (
	day       = 24 * time.Hour
	dateFmt   = "2006-01-02"
	monthFmt  = "2006-01"
	daysWeek  = 7
	maxMonthW = 6
)

// civilDate drops the clock part of t, keeping its calendar day as UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthStart returns the first day of t's calendar month.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday on or before t's calendar day.
func mondayOf(t time.Time) time.Time {
	d := civilDate(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// daysBetween returns the whole days from a to b, both truncated to calendar days.
func daysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)) / day)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ISOWeek derives the ISO-8601 year and week of t: the week belongs to the year
// of its Thursday.
func ISOWeek(t time.Time) (year, week int) {
	thursday := mondayOf(t).AddDate(0, 0, 3)
	return thursday.Year(), (thursday.YearDay()-1)/daysWeek + 1
}

// WeekKey formats t's ISO week as YYYY-Www.
func WeekKey(t time.Time) string {
	y, w := ISOWeek(t)
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// timestampLayouts are tried in order after the plain calendar date. Layouts
// without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate parses a calendar date (YYYY-MM-DD) or an ISO-8601 timestamp with
// or without an offset, using either "T" or a space as separator.
// An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) == len(dateFmt) {
		return time.Parse(dateFmt, s)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
