package analytics_test

import (
	"testing"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		rng      analytics.DateRange
		expected analytics.Classification
	}{
		{
			name:     "no bounds",
			rng:      analytics.DateRange{},
			expected: analytics.ClassNone,
		},
		{
			name:     "missing end",
			rng:      analytics.DateRange{From: d(2024, 3, 1)},
			expected: analytics.ClassNone,
		},
		{
			name:     "single day",
			rng:      analytics.DateRange{From: d(2024, 1, 10), To: d(2024, 1, 10)},
			expected: analytics.ClassWeek,
		},
		{
			name:     "full Monday to Sunday week inside one month",
			rng:      analytics.DateRange{From: d(2024, 3, 4), To: d(2024, 3, 10)},
			expected: analytics.ClassWeek,
		},
		{
			name:     "week crossing a month boundary",
			rng:      analytics.DateRange{From: d(2024, 1, 29), To: d(2024, 2, 2)},
			expected: analytics.ClassWeek,
		},
		{
			name:     "seven days across two ISO weeks in one month",
			rng:      analytics.DateRange{From: d(2024, 3, 6), To: d(2024, 3, 12)},
			expected: analytics.ClassMonthBreakdown,
		},
		{
			name:     "whole calendar month",
			rng:      analytics.DateRange{From: d(2024, 3, 1), To: d(2024, 3, 31)},
			expected: analytics.ClassMonthBreakdown,
		},
		{
			name:     "four weeks across months",
			rng:      analytics.DateRange{From: d(2024, 1, 15), To: d(2024, 2, 11)},
			expected: analytics.ClassMonthRange,
		},
		{
			name:     "quarter",
			rng:      analytics.DateRange{From: d(2024, 1, 1), To: d(2024, 3, 31)},
			expected: analytics.ClassMonthRange,
		},
		{
			name:     "short range across months",
			rng:      analytics.DateRange{From: d(2024, 1, 25), To: d(2024, 2, 5)},
			expected: analytics.ClassNone,
		},
		{
			name:     "inverted range",
			rng:      analytics.DateRange{From: d(2024, 3, 31), To: d(2024, 3, 1)},
			expected: analytics.ClassNone,
		},
		{
			name: "time of day is ignored",
			rng: analytics.DateRange{
				From: time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC),
			},
			expected: analytics.ClassWeek,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, analytics.Classify(tc.rng))
		})
	}
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "WEEK", analytics.ClassWeek.String())
	assert.Equal(t, "MONTH_BREAKDOWN", analytics.ClassMonthBreakdown.String())
	assert.Equal(t, "MONTH_RANGE", analytics.ClassMonthRange.String())
	assert.Equal(t, "NONE", analytics.ClassNone.String())

	text, err := analytics.ClassMonthRange.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "MONTH_RANGE", string(text))

	var c analytics.Classification
	assert.NoError(t, c.UnmarshalText([]byte("MONTH_BREAKDOWN")))
	assert.Equal(t, analytics.ClassMonthBreakdown, c)
	assert.Error(t, c.UnmarshalText([]byte("YEAR")))
}

func TestWeekKey(t *testing.T) {
	cases := []struct {
		date     time.Time
		expected string
	}{
		{d(2024, 3, 4), "2024-W10"},
		{d(2024, 3, 10), "2024-W10"},
		{d(2021, 1, 3), "2020-W53"},
		{d(2024, 12, 30), "2025-W01"},
		{d(2026, 1, 1), "2026-W01"},
		{d(2027, 1, 1), "2026-W53"},
	}

	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, analytics.WeekKey(tc.date))

			y, w := analytics.ISOWeek(tc.date)
			wantY, wantW := tc.date.ISOWeek()
			assert.Equal(t, wantY, y)
			assert.Equal(t, wantW, w)
		})
	}
}

func TestParseDate(t *testing.T) {
	at := func(h, min, sec, nsec int) time.Time {
		return time.Date(2024, 3, 4, h, min, sec, nsec, time.UTC)
	}

	cases := []struct {
		name     string
		in       string
		expected time.Time
	}{
		{"empty", "", time.Time{}},
		{"calendar date", "2024-03-04", at(0, 0, 0, 0)},
		{"rfc3339 utc", "2024-03-04T10:00:00Z", at(10, 0, 0, 0)},
		{"rfc3339 offset", "2024-03-04T12:00:00+02:00", at(10, 0, 0, 0)},
		{"naive T", "2024-03-04T10:00:00", at(10, 0, 0, 0)},
		{"naive T fractional", "2024-03-04T10:00:00.123456", at(10, 0, 0, 123456000)},
		{"naive space", "2024-03-04 10:00:00", at(10, 0, 0, 0)},
		{"naive space fractional", "2024-03-04 10:00:00.5", at(10, 0, 0, 500000000)},
		{"space with offset", "2024-03-04 10:00:00+00:00", at(10, 0, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := analytics.ParseDate(tc.in)
			assert.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %v", got)
		})
	}

	for _, bad := range []string{"04/03/2024", "yesterday", "2024-03-04T25:00:00"} {
		_, err := analytics.ParseDate(bad)
		assert.Error(t, err, bad)
	}
}
