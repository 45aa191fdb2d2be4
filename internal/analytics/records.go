package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// UnspecifiedArea is the area assigned to records that carry none.
const UnspecifiedArea = "unspecified"

// MaxScore is the upper bound of an assignment's total score.
const MaxScore = 5.0

var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrMalformedSummary = errors.New("malformed summary")
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// AssignmentRecord pairs one survey with one targeted user and the eventual outcome.
// RiskLevel, Score and ResponseDate are set together once the user answers.
type AssignmentRecord struct {
	ID           string     `json:"id"`
	SurveyID     string     `json:"surveyId"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName,omitempty"`
	Area         string     `json:"area,omitempty"`
	RiskLevel    RiskLevel  `json:"riskLevel,omitempty"`
	Score        *float64   `json:"score,omitempty"`
	ResponseDate *time.Time `json:"responseDate,omitempty"`
}

// AreaOrDefault returns the record's area, or UnspecifiedArea when empty.
func (a AssignmentRecord) AreaOrDefault() string {
	if a.Area == "" {
		return UnspecifiedArea
	}
	return a.Area
}

// Answered reports whether the record carries a response outcome.
func (a AssignmentRecord) Answered() bool {
	return a.Score != nil && a.ResponseDate != nil
}

// Validate checks the pairing of risk level, score and response date.
func (a AssignmentRecord) Validate() error {
	hasRisk := a.RiskLevel != ""
	hasScore := a.Score != nil
	hasDate := a.ResponseDate != nil && !a.ResponseDate.IsZero()

	if hasRisk != hasScore || hasScore != hasDate {
		return fmt.Errorf("%w: assignment %q has risk=%t score=%t date=%t",
			ErrMalformedRecord, a.ID, hasRisk, hasScore, hasDate)
	}
	if hasRisk && !a.RiskLevel.Valid() {
		return fmt.Errorf("%w: assignment %q has unknown risk level %q", ErrMalformedRecord, a.ID, a.RiskLevel)
	}
	if hasScore {
		s := *a.Score
		if math.IsNaN(s) || s < 0 || s > MaxScore {
			return fmt.Errorf("%w: assignment %q score %v out of range", ErrMalformedRecord, a.ID, s)
		}
	}
	return nil
}

// ResponseRecord is a single answered item of a survey.
type ResponseRecord struct {
	ID           string     `json:"id"`
	SurveyID     string     `json:"surveyId"`
	UserID       string     `json:"userId"`
	QuestionID   string     `json:"questionId,omitempty"`
	Value        string     `json:"value"`
	ResponseDate *time.Time `json:"responseDate,omitempty"`
}

type Distribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Total returns the number of respondents across all risk levels.
func (d Distribution) Total() int {
	return d.Low + d.Medium + d.High
}

// Add returns the element-wise sum of d and o.
func (d Distribution) Add(o Distribution) Distribution {
	return Distribution{
		Low:    d.Low + o.Low,
		Medium: d.Medium + o.Medium,
		High:   d.High + o.High,
	}
}

type AreaAverage struct {
	Area      string  `json:"area"`
	Average   float64 `json:"average"`
	Responded int     `json:"responded,omitempty"`
}

// AreaAverages is held as a list sorted by area. It decodes from either a JSON
// list of {area, average[, responded]} objects or a JSON object of area -> average.
type AreaAverages []AreaAverage

func (a *AreaAverages) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	out := AreaAverages{}
	switch trimmed[0] {
	case '[':
		var items []struct {
			Area      string   `json:"area"`
			Average   *float64 `json:"average"`
			Promedio  *float64 `json:"promedio"`
			General   *float64 `json:"promedio_general"`
			Responded int      `json:"responded"`
			Count     int      `json:"respondidos"`
		}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decode area list: %w", err)
		}
		for _, it := range items {
			if it.Area == "" {
				continue
			}
			avg := firstNonNil(it.Average, it.Promedio, it.General)
			responded := it.Responded
			if responded == 0 {
				responded = it.Count
			}
			out = append(out, AreaAverage{Area: it.Area, Average: avg, Responded: responded})
		}
	case '{':
		var m map[string]float64
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return fmt.Errorf("decode area map: %w", err)
		}
		for area, avg := range m {
			out = append(out, AreaAverage{Area: area, Average: avg})
		}
	default:
		return fmt.Errorf("decode areas: unexpected JSON %q", string(trimmed[:1]))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	*a = out
	return nil
}

// Lookup returns the entry for area, if present.
func (a AreaAverages) Lookup(area string) (AreaAverage, bool) {
	for _, e := range a {
		if e.Area == area {
			return e, true
		}
	}
	return AreaAverage{}, false
}

func firstNonNil(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// SurveySummary is a per-survey snapshot aggregated upstream.
type SurveySummary struct {
	SurveyID       string       `json:"surveyId,omitempty"`
	Assigned       int          `json:"assigned"`
	Responded      int          `json:"responded"`
	OverallAverage float64      `json:"overallAverage"`
	Distribution   Distribution `json:"distribution"`
	ByArea         AreaAverages `json:"byArea"`
}

// Participation returns round(100 * responded / assigned), or 0 when nothing was assigned.
func (s SurveySummary) Participation() int {
	if s.Assigned <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.Responded) / float64(s.Assigned)))
}

// Validate checks the counting invariants of the summary.
func (s SurveySummary) Validate() error {
	if s.Assigned < 0 || s.Responded < 0 {
		return fmt.Errorf("%w: survey %q has negative counts", ErrMalformedSummary, s.SurveyID)
	}
	if s.Responded > s.Assigned {
		return fmt.Errorf("%w: survey %q responded %d > assigned %d",
			ErrMalformedSummary, s.SurveyID, s.Responded, s.Assigned)
	}
	if total := s.Distribution.Total(); total != s.Responded {
		return fmt.Errorf("%w: survey %q distribution sums to %d, responded %d",
			ErrMalformedSummary, s.SurveyID, total, s.Responded)
	}
	return nil
}

// DateRange is an inclusive pair of calendar dates. A zero bound is unbounded.
type DateRange struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

// Bounded reports whether both bounds are present.
func (r DateRange) Bounded() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Contains reports whether the calendar day of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := civilDate(t)
	if !r.From.IsZero() && d.Before(civilDate(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(civilDate(r.To)) {
		return false
	}
	return true
}

// FilterSet restricts every aggregate. Empty fields mean no restriction.
type FilterSet struct {
	SurveyIDs  []string    `json:"surveyIds,omitempty"`
	Areas      []string    `json:"areas,omitempty"`
	RiskLevels []RiskLevel `json:"riskLevels,omitempty"`
	Range      DateRange   `json:"range"`
}

// Dataset is the flattened input of one computation pass.
type Dataset struct {
	Assignments []AssignmentRecord
	Responses   []ResponseRecord
	Summaries   []SurveySummary
}

// Survey identifies a survey known to a record source.
type Survey struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}
