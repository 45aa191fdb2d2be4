package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/google/uuid"
)

const missing = "—"

// Meta carries the free-text header fields of an exported report.
type Meta struct {
	GeneratedBy string `json:"generatedBy"`
	Signature   string `json:"signature"`
	// SurveyCount is shown when the filters do not name surveys explicitly.
	SurveyCount int `json:"surveyCount"`
}

type Section struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generatedAt"`
	Sections    []Section `json:"sections"`
}

// Section returns the section with the given title.
func (r Report) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// Composer turns computed insights into a tabular report.
type Composer struct {
	newID func() string
	now   func() time.Time
}

type Option func(*Composer)

func WithIDGenerator(fn func() string) Option {
	return func(c *Composer) { c.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(c *Composer) { c.now = fn }
}

func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const (
	TitleHeader        = "Wellness report"
	TitleFilters       = "Applied filters"
	TitleDaily         = "Daily series (average per date)"
	TitleWeekly        = "Weekly series (average per day)"
	TitleWeeksOfMonth  = "Averages by week of month"
	TitleMonthly       = "Monthly averages (range)"
	TitleParticipation = "Weekly participation (%)"
	TitleAreas         = "Averages by area"
	TitleDetail        = "Detailed responses"
	TitleSummary       = "Summary"
)

// Compose lays out ins as report sections. The trend sections present depend on
// the range classification.
func (c *Composer) Compose(ins analytics.Insights, meta Meta) Report {
	fs := ins.Filters
	r := Report{
		ID:          c.newID(),
		Title:       TitleHeader + " " + monthTitle(fs.Range, c.now()),
		GeneratedAt: c.now().UTC(),
	}

	r.Sections = append(r.Sections,
		Section{
			Title:   TitleHeader,
			Headers: []string{"Generated by", "Signature"},
			Rows:    [][]string{{orMissing(meta.GeneratedBy), orMissing(meta.Signature)}},
		},
		Section{
			Title:   TitleFilters,
			Headers: []string{"Range", "Surveys", "Areas", "Risk levels"},
			Rows: [][]string{{
				formatDate(fs.Range.From) + " to " + formatDate(fs.Range.To),
				strconv.Itoa(surveyCount(fs, meta)),
				joinOr(fs.Areas, "All"),
				joinOr(riskStrings(fs.RiskLevels), "All"),
			}},
		},
		seriesSection(TitleDaily, "Date", ins.Daily, nil),
	)

	switch ins.Classification {
	case analytics.ClassWeek:
		r.Sections = append(r.Sections, seriesSection(TitleWeekly, "Day", ins.Series, nil))
	case analytics.ClassMonthBreakdown:
		monthly := analytics.MonthlyBucketer{Now: c.now}.Bucket(ins.Matched, fs.Range)
		r.Sections = append(r.Sections,
			seriesSection(TitleWeeksOfMonth, "Week", ins.Series, nil),
			seriesSection(TitleMonthly, "Month", monthly, formatMonth),
		)
	case analytics.ClassMonthRange:
		r.Sections = append(r.Sections, seriesSection(TitleMonthly, "Month", ins.Series, formatMonth))
	}

	part := Section{Title: TitleParticipation, Headers: []string{"Week", "Participation"}}
	for _, p := range ins.Participation {
		part.Rows = append(part.Rows, []string{p.WeekKey, strconv.Itoa(p.Percentage)})
	}

	areas := Section{Title: TitleAreas, Headers: []string{"Area", "Average", "Responded"}}
	for _, a := range ins.Summary.ByArea {
		areas.Rows = append(areas.Rows, []string{a.Area, formatAverage(&a.Average), strconv.Itoa(a.Responded)})
	}

	detail := Section{Title: TitleDetail, Headers: []string{"Date", "User", "Area", "Score", "Risk"}}
	for _, a := range ins.Matched {
		detail.Rows = append(detail.Rows, []string{
			formatTimestamp(a.ResponseDate),
			orMissing(a.UserName),
			orMissing(a.Area),
			formatAverage(a.Score),
			orMissing(string(a.RiskLevel)),
		})
	}

	summary := Section{
		Title:   TitleSummary,
		Headers: []string{"Participation", "High risk", "Overall average"},
		Rows: [][]string{{
			strconv.Itoa(ins.SummaryParticipation) + "%",
			strconv.Itoa(ins.Summary.Distribution.High),
			formatAverage(&ins.Summary.OverallAverage),
		}},
	}

	r.Sections = append(r.Sections, part, areas, detail, summary)
	return r
}

func seriesSection(title, column string, s analytics.Series, label func(string) string) Section {
	sec := Section{Title: title, Headers: []string{column, "Average"}}
	for _, p := range s.Points {
		l := p.Label
		if label != nil {
			l = label(l)
		}
		sec.Rows = append(sec.Rows, []string{l, formatAverage(p.Average)})
	}
	return sec
}

func surveyCount(fs analytics.FilterSet, meta Meta) int {
	if len(fs.SurveyIDs) > 0 {
		return len(fs.SurveyIDs)
	}
	return meta.SurveyCount
}

func monthTitle(rng analytics.DateRange, now time.Time) string {
	ref := rng.From
	if ref.IsZero() {
		ref = now
	}
	return ref.Format("2006-01")
}

func formatAverage(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return missing
	}
	return t.Format("2006-01-02")
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return missing
	}
	return t.Format(time.RFC3339)
}

// formatMonth renders a YYYY-MM label as "March 2024".
func formatMonth(ym string) string {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return orMissing(ym)
	}
	return t.Format("January 2006")
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func riskStrings(levels []analytics.RiskLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

// FileName builds the download name of an exported report.
func FileName(rng analytics.DateRange) string {
	from, to := "", ""
	if !rng.From.IsZero() {
		from = rng.From.Format("2006-01-02")
	}
	if !rng.To.IsZero() {
		to = rng.To.Format("2006-01-02")
	}
	if from == "" && to == "" {
		return "wellness_report_range.csv"
	}
	return fmt.Sprintf("wellness_report_%s_%s.csv", from, to)
}
