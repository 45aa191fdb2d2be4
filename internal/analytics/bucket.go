package analytics

import (
	"fmt"
	"time"
)

// Point is one bucket of a trend series. Average is nil when the bucket has no
// scored records.
type Point struct {
	Label     string    `json:"label"`
	Start     time.Time `json:"start,omitzero"`
	End       time.Time `json:"end,omitzero"`
	Average   *float64  `json:"average"`
	Responses int       `json:"responses"`
}

// Series is a trend line produced by one bucketing strategy.
type Series struct {
	Kind   Classification `json:"kind"`
	Points []Point        `json:"points"`
}

// Bucketer turns filtered assignments into a series for a date range.
type Bucketer interface {
	Bucket(records []AssignmentRecord, rng DateRange) Series
}

// BucketerFunc adapts a function to Bucketer.
type BucketerFunc func(records []AssignmentRecord, rng DateRange) Series

func (f BucketerFunc) Bucket(records []AssignmentRecord, rng DateRange) Series {
	return f(records, rng)
}

// Bucketers maps each classification to its strategy.
type Bucketers map[Classification]Bucketer

// DefaultBucketers returns the strategy table. now anchors ranges without bounds.
func DefaultBucketers(now func() time.Time) Bucketers {
	if now == nil {
		now = time.Now
	}
	return Bucketers{
		ClassNone:           BucketerFunc(DailySeries),
		ClassWeek:           WeeklyBucketer{Now: now},
		ClassMonthBreakdown: BucketerFunc(WeeksInMonthSeries),
		ClassMonthRange:     MonthlyBucketer{Now: now},
	}
}

// For returns the strategy for c, falling back to the daily series.
func (b Bucketers) For(c Classification) Bucketer {
	if s, ok := b[c]; ok {
		return s
	}
	return BucketerFunc(DailySeries)
}

type scoredRecord struct {
	date  time.Time
	score float64
}

func scored(records []AssignmentRecord) []scoredRecord {
	out := make([]scoredRecord, 0, len(records))
	for _, r := range records {
		if !r.Answered() {
			continue
		}
		out = append(out, scoredRecord{date: civilDate(*r.ResponseDate), score: *r.Score})
	}
	return out
}

// DailySeries averages scores per calendar day, ascending by date.
func DailySeries(records []AssignmentRecord, _ DateRange) Series {
	byDay := newGroupedScores()
	for _, r := range scored(records) {
		byDay.add(r.date.Format(dateFmt), r.score)
	}
	keys := byDay.sortedKeys()
	points := make([]Point, 0, len(keys))
	for _, k := range keys {
		g := byDay.get(k)
		d, _ := time.Parse(dateFmt, k)
		points = append(points, Point{
			Label:     k,
			Start:     d,
			End:       d,
			Average:   g.mean(),
			Responses: g.count,
		})
	}
	return Series{Kind: ClassNone, Points: points}
}

var weekdayLabels = [daysWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeeklyBucketer averages scores per weekday of the week containing the range
// anchor. It always emits seven points.
type WeeklyBucketer struct {
	Now func() time.Time
}

func (w WeeklyBucketer) Bucket(records []AssignmentRecord, rng DateRange) Series {
	anchor := rng.From
	if anchor.IsZero() {
		anchor = rng.To
	}
	if anchor.IsZero() {
		anchor = nowOr(w.Now)
	}
	monday := mondayOf(anchor)

	var buckets [daysWeek]scoreGroup
	for _, r := range scored(records) {
		offset := daysBetween(monday, r.date)
		if offset < 0 || offset >= daysWeek {
			continue
		}
		buckets[offset].add(r.score)
	}

	points := make([]Point, daysWeek)
	for i := range buckets {
		d := monday.AddDate(0, 0, i)
		points[i] = Point{
			Label:     weekdayLabels[i],
			Start:     d,
			End:       d,
			Average:   buckets[i].mean(),
			Responses: buckets[i].count,
		}
	}
	return Series{Kind: ClassWeek, Points: points}
}

// WeeksInMonthSeries splits the month of rng.From into Monday-based weeks.
// Records outside that month are left out even when a boundary week covers them.
func WeeksInMonthSeries(records []AssignmentRecord, rng DateRange) Series {
	series := Series{Kind: ClassMonthBreakdown, Points: []Point{}}
	if !rng.Bounded() {
		return series
	}
	from, to := civilDate(rng.From), civilDate(rng.To)
	if from.After(to) {
		return series
	}

	recs := scored(records)
	weekStart := mondayOf(from)
	for idx := 1; idx <= maxMonthW && !weekStart.After(to); idx++ {
		weekEnd := weekStart.AddDate(0, 0, daysWeek-1)

		var g scoreGroup
		for _, r := range recs {
			if !sameMonth(r.date, from) {
				continue
			}
			if r.date.Before(weekStart) || r.date.After(weekEnd) {
				continue
			}
			g.add(r.score)
		}
		series.Points = append(series.Points, Point{
			Label:     fmt.Sprintf("Week %d", idx),
			Start:     weekStart,
			End:       weekEnd,
			Average:   g.mean(),
			Responses: g.count,
		})

		weekStart = weekStart.AddDate(0, 0, daysWeek)
		if !sameMonth(weekStart, from) {
			break
		}
	}
	return series
}

// MonthlyBucketer averages scores per calendar month, emitting every month of
// the range including empty ones.
type MonthlyBucketer struct {
	Now func() time.Time
}

func (m MonthlyBucketer) Bucket(records []AssignmentRecord, rng DateRange) Series {
	from, to := rng.From, rng.To
	switch {
	case from.IsZero() && to.IsZero():
		from = nowOr(m.Now)
		to = from
	case from.IsZero():
		from = to
	case to.IsZero():
		to = from
	}

	byMonth := newGroupedScores()
	for _, r := range scored(records) {
		byMonth.add(r.date.Format(monthFmt), r.score)
	}

	points := []Point{}
	end := monthStart(to)
	for cur := monthStart(from); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		label := cur.Format(monthFmt)
		g := byMonth.get(label)
		p := Point{
			Label:   label,
			Start:   cur,
			End:     cur.AddDate(0, 1, -1),
			Average: g.mean(),
		}
		if g != nil {
			p.Responses = g.count
		}
		points = append(points, p)
	}
	return Series{Kind: ClassMonthRange, Points: points}
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
