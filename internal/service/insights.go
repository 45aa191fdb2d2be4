package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFetchTimeout = 5 * time.Second
	defaultConcurrency  = 4
)

var (
	ErrSourceFailure = errors.New("source failure")
	ErrInvalidFilter = errors.New("invalid filter")
)

// InsightsService collects survey records from a SurveySource and runs the
// analytics engine over them.
type InsightsService struct {
	source       SurveySource
	composer     *report.Composer
	logger       *zap.Logger
	fetchTimeout time.Duration
	concurrency  int
	now          func() time.Time
}

type Option func(*InsightsService)

// WithFetchTimeout bounds every individual source call.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *InsightsService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithConcurrency caps the number of in-flight source calls.
func WithConcurrency(n int) Option {
	return func(s *InsightsService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *InsightsService) { s.now = now }
}

func WithComposer(c *report.Composer) Option {
	return func(s *InsightsService) { s.composer = c }
}

// NewInsightsService creates a new InsightsService instance.
func NewInsightsService(source SurveySource, logger *zap.Logger, opts ...Option) *InsightsService {
	if source == nil {
		panic("source must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &InsightsService{
		source:       source,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
		concurrency:  defaultConcurrency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.composer == nil {
		s.composer = report.NewComposer(report.WithClock(s.now))
	}
	return s
}

// surveySlot holds the fetches of one survey. Each field is written by a single goroutine.
type surveySlot struct {
	assignments []analytics.AssignmentRecord
	responses   []analytics.ResponseRecord
	summary     *analytics.SurveySummary
}

// Collect fetches assignments, responses and the summary of every survey in
// surveyIDs concurrently. A failing fetch is logged and contributes nothing.
// An empty surveyIDs means every active survey.
func (s *InsightsService) Collect(ctx context.Context, surveyIDs []string) (analytics.Dataset, error) {
	ids := dedupe(surveyIDs)
	if len(ids) == 0 {
		active, err := s.activeSurveyIDs(ctx)
		if err != nil {
			return analytics.Dataset{}, err
		}
		ids = active
	}

	slots := make([]surveySlot, len(ids))
	g := &errgroup.Group{}
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			if v, ok := fetch(ctx, s, "assignments", id, s.source.ListAssignments); ok {
				slots[i].assignments = v
			}
			return nil
		})
		g.Go(func() error {
			if v, ok := fetch(ctx, s, "responses", id, s.source.ListResponses); ok {
				slots[i].responses = v
			}
			return nil
		})
		g.Go(func() error {
			if v, ok := fetch(ctx, s, "summary", id, s.source.GetSummary); ok {
				if v.SurveyID == "" {
					v.SurveyID = id
				}
				slots[i].summary = &v
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return analytics.Dataset{}, err
	}

	var ds analytics.Dataset
	for _, slot := range slots {
		ds.Assignments = append(ds.Assignments, slot.assignments...)
		ds.Responses = append(ds.Responses, slot.responses...)
		if slot.summary != nil {
			ds.Summaries = append(ds.Summaries, *slot.summary)
		}
	}

	s.logger.Debug("collected survey records",
		zap.Int("surveys", len(ids)),
		zap.Int("assignments", len(ds.Assignments)),
		zap.Int("responses", len(ds.Responses)),
		zap.Int("summaries", len(ds.Summaries)))

	return ds, nil
}

func (s *InsightsService) activeSurveyIDs(ctx context.Context) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	surveys, err := s.source.ListActiveSurveys(callCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}
	ids := make([]string, 0, len(surveys))
	for _, sv := range surveys {
		ids = append(ids, sv.ID)
	}
	return dedupe(ids), nil
}

func fetch[T any](ctx context.Context, s *InsightsService, resource, surveyID string, fn func(context.Context, string) (T, error)) (T, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	v, err := fn(callCtx, surveyID)
	if err != nil {
		s.logger.Warn("fetch failed, continuing without it",
			zap.String("survey_id", surveyID),
			zap.String("resource", resource),
			zap.Error(err))
		var zero T
		return zero, false
	}
	return v, true
}

// GetInsights returns every aggregate for the given filter set.
func (s *InsightsService) GetInsights(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, error) {
	ins, _, err := s.insights(ctx, fs)
	return ins, err
}

func (s *InsightsService) insights(ctx context.Context, fs analytics.FilterSet) (analytics.Insights, int, error) {
	fs, err := NormalizeFilter(fs)
	if err != nil {
		return analytics.Insights{}, 0, err
	}

	ds, err := s.Collect(ctx, fs.SurveyIDs)
	if err != nil {
		return analytics.Insights{}, 0, err
	}

	ins := analytics.Analyze(ds, fs, analytics.WithClock(s.now))
	if ins.SkippedRecords > 0 || ins.SkippedSummaries > 0 {
		s.logger.Warn("skipped malformed input",
			zap.Int("records", ins.SkippedRecords),
			zap.Int("summaries", ins.SkippedSummaries))
	}

	s.logger.Info("computed insights",
		zap.Stringer("classification", ins.Classification),
		zap.Int("matched", len(ins.Matched)),
		zap.Int("eligible", ins.Eligible),
		zap.Int("participation", ins.SummaryParticipation))

	return ins, surveyCount(ds), nil
}

// ExportReport computes insights for fs and lays them out as a report.
func (s *InsightsService) ExportReport(ctx context.Context, fs analytics.FilterSet, meta report.Meta) (report.Report, error) {
	ins, surveys, err := s.insights(ctx, fs)
	if err != nil {
		return report.Report{}, err
	}
	if meta.SurveyCount == 0 {
		meta.SurveyCount = surveys
	}
	return s.composer.Compose(ins, meta), nil
}

// NormalizeFilter lowercases risk levels, trims ids and areas, and rejects
// unknown risk levels.
func NormalizeFilter(fs analytics.FilterSet) (analytics.FilterSet, error) {
	out := fs
	out.SurveyIDs = dedupe(fs.SurveyIDs)
	out.Areas = dedupe(fs.Areas)
	out.RiskLevels = nil
	for _, r := range fs.RiskLevels {
		level := analytics.RiskLevel(strings.ToLower(strings.TrimSpace(string(r))))
		if level == "" {
			continue
		}
		if !level.Valid() {
			return analytics.FilterSet{}, fmt.Errorf("%w: unknown risk level %q", ErrInvalidFilter, r)
		}
		out.RiskLevels = append(out.RiskLevels, level)
	}
	return out, nil
}

func surveyCount(ds analytics.Dataset) int {
	seen := make(map[string]struct{})
	for _, a := range ds.Assignments {
		seen[a.SurveyID] = struct{}{}
	}
	for _, sm := range ds.Summaries {
		seen[sm.SurveyID] = struct{}{}
	}
	delete(seen, "")
	return len(seen)
}

// dedupe trims items and drops blanks and repeats, keeping first-seen order.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
