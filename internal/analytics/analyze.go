// Package analytics aggregates wellness survey records into trend series,
// participation rates and composite summaries.
//
// Everything here is a deterministic transform of its inputs: no I/O, no
// goroutines, no shared state. Missing data never produces an error; empty
// buckets are reported as nil averages and bad rows are skipped and counted.
package analytics

import "time"

// Insights is the full result of one computation pass.
type Insights struct {
	Filters        FilterSet            `json:"filters"`
	Classification Classification       `json:"classification"`
	Series         Series               `json:"series"`
	Daily          Series               `json:"daily"`
	Participation  []ParticipationPoint `json:"participation"`
	Summary        SurveySummary        `json:"summary"`

	// AvailableAreas are the area values the selected surveys offer for filtering.
	AvailableAreas []string `json:"availableAreas"`
	// SummaryParticipation is the composite summary's participation percentage.
	SummaryParticipation int `json:"summaryParticipation"`

	Matched   []AssignmentRecord `json:"matched"`
	Responses []ResponseRecord   `json:"responses"`

	Eligible         int `json:"eligible"`
	SkippedRecords   int `json:"skippedRecords"`
	SkippedSummaries int `json:"skippedSummaries"`
}

type options struct {
	now       func() time.Time
	bucketers Bucketers
}

type Option func(*options)

// WithClock sets the clock used to anchor series over unbounded ranges.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBucketers overrides the classification to strategy table.
func WithBucketers(b Bucketers) Option {
	return func(o *options) { o.bucketers = b }
}

// Analyze runs the filter pipeline, the range classifier, the selected
// bucketer, the participation calculator and the summary merger over ds.
// Summaries that break their counting invariants are left out of the merge.
func Analyze(ds Dataset, fs FilterSet, opts ...Option) Insights {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.bucketers == nil {
		o.bucketers = DefaultBucketers(o.now)
	}

	filtered := Apply(ds.Assignments, fs)
	class := Classify(fs.Range)

	valid := make([]SurveySummary, 0, len(ds.Summaries))
	skippedSummaries := 0
	for _, s := range ds.Summaries {
		if err := s.Validate(); err != nil {
			skippedSummaries++
			continue
		}
		valid = append(valid, s)
	}
	summary := Merge(valid...)

	eligible := make(map[string]struct{}, len(filtered.Scoped))
	for _, a := range filtered.Scoped {
		eligible[a.UserID] = struct{}{}
	}

	return Insights{
		Filters:              fs,
		Classification:       class,
		Series:               o.bucketers.For(class).Bucket(filtered.Matched, fs.Range),
		Daily:                DailySeries(filtered.Matched, fs.Range),
		Participation:        participationOf(filtered),
		Summary:              summary,
		SummaryParticipation: summary.Participation(),
		AvailableAreas:       AvailableAreas(ds.Assignments, summary, fs.SurveyIDs),
		Matched:              filtered.Matched,
		Responses:            FilterResponses(ds.Responses, ds.Assignments, fs),
		Eligible:             len(eligible),
		SkippedRecords:       filtered.Skipped,
		SkippedSummaries:     skippedSummaries,
	}
}
