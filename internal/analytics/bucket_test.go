package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySeries(t *testing.T) {
	records := []AssignmentRecord{
		answered(t, "a3", "u3", "B", RiskLow, 5, "2024-03-11T09:00:00Z"),
		answered(t, "a1", "u1", "A", RiskLow, 4, "2024-03-04T08:00:00Z"),
		answered(t, "a2", "u2", "A", RiskHigh, 2, "2024-03-04T17:30:00Z"),
		pending("a4", "u4", "A"),
	}

	series := DailySeries(records, DateRange{})

	require.Len(t, series.Points, 2)
	assert.Equal(t, ClassNone, series.Kind)
	assert.Equal(t, "2024-03-04", series.Points[0].Label)
	assert.Equal(t, 3.0, *series.Points[0].Average)
	assert.Equal(t, 2, series.Points[0].Responses)
	assert.Equal(t, "2024-03-11", series.Points[1].Label)
	assert.Equal(t, 5.0, *series.Points[1].Average)
}

func TestDailySeriesEmpty(t *testing.T) {
	series := DailySeries(nil, DateRange{})

	assert.NotNil(t, series.Points)
	assert.Empty(t, series.Points)
}

func TestWeeklyBucketer(t *testing.T) {
	rng := DateRange{From: date(t, "2024-03-06"), To: date(t, "2024-03-08")}

	t.Run("seven buckets with gaps as nil", func(t *testing.T) {
		records := []AssignmentRecord{
			answered(t, "a1", "u1", "A", RiskLow, 4, "2024-03-04"),
			answered(t, "a2", "u2", "A", RiskMedium, 3, "2024-03-04"),
			answered(t, "a3", "u3", "A", RiskHigh, 1, "2024-03-10"),
			answered(t, "a4", "u4", "A", RiskLow, 5, "2024-03-11"),
			answered(t, "a5", "u5", "A", RiskLow, 5, "2024-03-03"),
		}

		series := WeeklyBucketer{}.Bucket(records, rng)

		require.Len(t, series.Points, 7)
		assert.Equal(t, ClassWeek, series.Kind)
		assert.Equal(t, []*float64{ptr(3.5), nil, nil, nil, nil, nil, ptr(1)}, averages(series))
		assert.Equal(t, "Mon", series.Points[0].Label)
		assert.Equal(t, "Sun", series.Points[6].Label)
		assert.Equal(t, date(t, "2024-03-04"), series.Points[0].Start)
	})

	t.Run("no records still yields seven nil buckets", func(t *testing.T) {
		series := WeeklyBucketer{}.Bucket(nil, rng)

		require.Len(t, series.Points, 7)
		for _, p := range series.Points {
			assert.Nil(t, p.Average)
			assert.Zero(t, p.Responses)
		}
	})

	t.Run("anchors on the end bound when start is missing", func(t *testing.T) {
		series := WeeklyBucketer{}.Bucket(nil, DateRange{To: date(t, "2024-03-13")})

		assert.Equal(t, date(t, "2024-03-11"), series.Points[0].Start)
	})

	t.Run("anchors on the clock without bounds", func(t *testing.T) {
		now := func() time.Time { return time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC) }

		series := WeeklyBucketer{Now: now}.Bucket(nil, DateRange{})

		assert.Equal(t, date(t, "2024-03-11"), series.Points[0].Start)
		assert.Equal(t, date(t, "2024-03-17"), series.Points[6].Start)
	})
}

func TestWeeksInMonthSeries(t *testing.T) {
	t.Run("March 2024 breakdown", func(t *testing.T) {
		records := []AssignmentRecord{
			answered(t, "a1", "u1", "A", RiskLow, 4, "2024-03-04"),
			answered(t, "a2", "u2", "A", RiskMedium, 2, "2024-03-04"),
			answered(t, "a3", "u3", "B", RiskLow, 5, "2024-03-11"),
		}
		rng := DateRange{From: date(t, "2024-03-01"), To: date(t, "2024-03-31")}

		series := WeeksInMonthSeries(records, rng)

		require.Len(t, series.Points, 5)
		assert.Equal(t, ClassMonthBreakdown, series.Kind)
		assert.Equal(t, []*float64{nil, ptr(3), ptr(5), nil, nil}, averages(series))
		assert.Equal(t, "Week 1", series.Points[0].Label)
		assert.Equal(t, date(t, "2024-02-26"), series.Points[0].Start)
		assert.Equal(t, "Week 5", series.Points[4].Label)
		assert.Equal(t, date(t, "2024-03-31"), series.Points[4].End)
	})

	t.Run("boundary weeks exclude records of the adjacent month", func(t *testing.T) {
		records := []AssignmentRecord{
			answered(t, "a1", "u1", "A", RiskLow, 1, "2024-02-27"),
			answered(t, "a2", "u2", "A", RiskLow, 4, "2024-03-02"),
			answered(t, "a3", "u3", "A", RiskLow, 1, "2024-04-01"),
		}
		rng := DateRange{From: date(t, "2024-03-01"), To: date(t, "2024-03-31")}

		series := WeeksInMonthSeries(records, rng)

		assert.Equal(t, 4.0, *series.Points[0].Average)
		assert.Equal(t, 1, series.Points[0].Responses)
		for _, p := range series.Points[1:] {
			assert.Nil(t, p.Average)
		}
	})

	t.Run("month spanning six weeks", func(t *testing.T) {
		rng := DateRange{From: date(t, "2024-09-01"), To: date(t, "2024-09-30")}

		series := WeeksInMonthSeries(nil, rng)

		assert.Len(t, series.Points, 6)
		assert.Equal(t, "Week 6", series.Points[5].Label)
	})

	t.Run("partial month stops after the end bound", func(t *testing.T) {
		rng := DateRange{From: date(t, "2024-03-04"), To: date(t, "2024-03-15")}

		series := WeeksInMonthSeries(nil, rng)

		assert.Len(t, series.Points, 2)
	})

	t.Run("unbounded range yields no buckets", func(t *testing.T) {
		series := WeeksInMonthSeries(nil, DateRange{From: date(t, "2024-03-04")})

		assert.NotNil(t, series.Points)
		assert.Empty(t, series.Points)
	})
}

func TestMonthlyBucketer(t *testing.T) {
	t.Run("includes empty months", func(t *testing.T) {
		records := []AssignmentRecord{
			answered(t, "a1", "u1", "A", RiskLow, 4, "2024-01-15"),
			answered(t, "a2", "u2", "A", RiskLow, 2, "2024-01-20"),
			answered(t, "a3", "u3", "A", RiskLow, 5, "2024-03-02"),
		}
		rng := DateRange{From: date(t, "2024-01-10"), To: date(t, "2024-04-05")}

		series := MonthlyBucketer{}.Bucket(records, rng)

		require.Len(t, series.Points, 4)
		assert.Equal(t, ClassMonthRange, series.Kind)
		assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"},
			[]string{series.Points[0].Label, series.Points[1].Label, series.Points[2].Label, series.Points[3].Label})
		assert.Equal(t, []*float64{ptr(3), nil, ptr(5), nil}, averages(series))
		assert.Equal(t, date(t, "2024-02-29"), series.Points[1].End)
	})

	t.Run("spans a year boundary", func(t *testing.T) {
		rng := DateRange{From: date(t, "2023-11-20"), To: date(t, "2024-01-31")}

		series := MonthlyBucketer{}.Bucket(nil, rng)

		require.Len(t, series.Points, 3)
		assert.Equal(t, "2023-12", series.Points[1].Label)
	})

	t.Run("single bound uses its month", func(t *testing.T) {
		series := MonthlyBucketer{}.Bucket(nil, DateRange{To: date(t, "2024-05-09")})

		require.Len(t, series.Points, 1)
		assert.Equal(t, "2024-05", series.Points[0].Label)
	})

	t.Run("no bounds uses the current month", func(t *testing.T) {
		now := func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }

		series := MonthlyBucketer{Now: now}.Bucket(nil, DateRange{})

		require.Len(t, series.Points, 1)
		assert.Equal(t, "2026-10", series.Points[0].Label)
	})
}

func TestBucketersFor(t *testing.T) {
	b := DefaultBucketers(nil)

	assert.IsType(t, WeeklyBucketer{}, b.For(ClassWeek))
	assert.IsType(t, MonthlyBucketer{}, b.For(ClassMonthRange))

	empty := Bucketers{}
	series := empty.For(ClassWeek).Bucket(nil, DateRange{})
	assert.Equal(t, ClassNone, series.Kind)
}
