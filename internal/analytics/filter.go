package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Filtered is the outcome of running the filter pipeline over assignments.
type Filtered struct {
	// Matched passes every predicate, including the date range.
	Matched []AssignmentRecord
	// Scoped passes the survey, area and risk predicates only. It is the
	// population that was asked, answered or not.
	Scoped []AssignmentRecord
	// Skipped counts malformed records dropped from both sets.
	Skipped int
}

type predicate struct {
	surveys map[string]struct{}
	areas   map[string]struct{}
	risks   map[RiskLevel]struct{}
	rng     DateRange
	dated   bool
}

func newPredicate(fs FilterSet) predicate {
	p := predicate{
		rng:   fs.Range,
		dated: !fs.Range.From.IsZero() || !fs.Range.To.IsZero(),
	}
	if len(fs.SurveyIDs) > 0 {
		p.surveys = toSet(fs.SurveyIDs)
	}
	if len(fs.Areas) > 0 {
		p.areas = toSet(fs.Areas)
	}
	if len(fs.RiskLevels) > 0 {
		p.risks = make(map[RiskLevel]struct{}, len(fs.RiskLevels))
		for _, r := range fs.RiskLevels {
			p.risks[RiskLevel(strings.ToLower(string(r)))] = struct{}{}
		}
	}
	return p
}

func (p predicate) inScope(a AssignmentRecord) bool {
	if p.surveys != nil {
		if _, ok := p.surveys[a.SurveyID]; !ok {
			return false
		}
	}
	if p.areas != nil {
		if _, ok := p.areas[a.AreaOrDefault()]; !ok {
			return false
		}
	}
	if p.risks != nil {
		if _, ok := p.risks[a.RiskLevel]; !ok {
			return false
		}
	}
	return true
}

func (p predicate) inRange(a AssignmentRecord) bool {
	if !p.dated {
		return true
	}
	if a.ResponseDate == nil {
		return false
	}
	return p.rng.Contains(*a.ResponseDate)
}

// Apply runs the filter pipeline. Areas, risk levels and survey ids are
// OR-combined within themselves and AND-combined with each other and the range.
func Apply(records []AssignmentRecord, fs FilterSet) Filtered {
	p := newPredicate(fs)
	out := Filtered{
		Matched: make([]AssignmentRecord, 0, len(records)),
		Scoped:  make([]AssignmentRecord, 0, len(records)),
	}
	for _, a := range records {
		if err := a.Validate(); err != nil {
			out.Skipped++
			continue
		}
		if !p.inScope(a) {
			continue
		}
		out.Scoped = append(out.Scoped, a)
		if p.inRange(a) {
			out.Matched = append(out.Matched, a)
		}
	}
	return out
}

// AvailableAreas lists the area values a filter can select from: every area
// on the assignments of the selected surveys, answered or not, plus the areas
// reported by the summary. Area and risk restrictions are ignored so the
// choices do not shrink while filtering. Blank areas read as UnspecifiedArea.
func AvailableAreas(assignments []AssignmentRecord, summary SurveySummary, surveyIDs []string) []string {
	var surveys map[string]struct{}
	if len(surveyIDs) > 0 {
		surveys = toSet(surveyIDs)
	}

	seen := make(map[string]struct{})
	add := func(area string) {
		area = strings.TrimSpace(area)
		if area == "" {
			area = UnspecifiedArea
		}
		seen[area] = struct{}{}
	}

	for _, a := range assignments {
		if surveys != nil {
			if _, ok := surveys[a.SurveyID]; !ok {
				continue
			}
		}
		add(a.Area)
	}
	for _, a := range summary.ByArea {
		add(a.Area)
	}

	out := make([]string, 0, len(seen))
	for area := range seen {
		out = append(out, area)
	}
	sort.Strings(out)
	return out
}

// FilterResponses keeps dated, numeric responses inside the range whose user
// holds at least one assignment within the survey, area and risk restrictions.
func FilterResponses(responses []ResponseRecord, assignments []AssignmentRecord, fs FilterSet) []ResponseRecord {
	p := newPredicate(fs)

	var users map[string]struct{}
	if p.surveys != nil || p.areas != nil || p.risks != nil {
		users = make(map[string]struct{})
		for _, a := range assignments {
			if p.inScope(a) {
				users[a.UserID] = struct{}{}
			}
		}
	}

	out := make([]ResponseRecord, 0, len(responses))
	for _, r := range responses {
		if r.ResponseDate == nil {
			continue
		}
		if p.dated && !p.rng.Contains(*r.ResponseDate) {
			continue
		}
		if p.surveys != nil {
			if _, ok := p.surveys[r.SurveyID]; !ok {
				continue
			}
		}
		if users != nil {
			if _, ok := users[r.UserID]; !ok {
				continue
			}
		}
		if _, ok := NumericValue(r.Value); !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// NumericValue parses a response value as a finite number.
func NumericValue(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
