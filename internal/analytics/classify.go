package analytics

import "fmt"

// Classification selects the bucketing strategy for a date range.
type Classification int

const (
	// ClassNone falls back to a raw daily series.
	ClassNone Classification = iota
	// ClassWeek buckets one Monday-Sunday week by weekday.
	ClassWeek
	// ClassMonthBreakdown buckets one calendar month by week.
	ClassMonthBreakdown
	// ClassMonthRange buckets by calendar month.
	ClassMonthRange
)

func (c Classification) String() string {
	switch c {
	case ClassWeek:
		return "WEEK"
	case ClassMonthBreakdown:
		return "MONTH_BREAKDOWN"
	case ClassMonthRange:
		return "MONTH_RANGE"
	default:
		return "NONE"
	}
}

// MarshalText renders the classification name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (c *Classification) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NONE", "":
		*c = ClassNone
	case "WEEK":
		*c = ClassWeek
	case "MONTH_BREAKDOWN":
		*c = ClassMonthBreakdown
	case "MONTH_RANGE":
		*c = ClassMonthRange
	default:
		return fmt.Errorf("unknown classification %q", text)
	}
	return nil
}

// Classify decides which bucketing strategy fits r. Unbounded and inverted
// ranges classify as ClassNone.
func Classify(r DateRange) Classification {
	if !r.Bounded() {
		return ClassNone
	}
	from, to := civilDate(r.From), civilDate(r.To)
	if from.After(to) {
		return ClassNone
	}

	duration := daysBetween(from, to) + 1

	if mondayOf(from).Equal(mondayOf(to)) && duration <= daysWeek {
		return ClassWeek
	}
	if sameMonth(from, to) {
		return ClassMonthBreakdown
	}
	if duration >= 28 {
		return ClassMonthRange
	}
	return ClassNone
}
