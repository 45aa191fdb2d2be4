package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/repository/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS surveys (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		survey_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		risk_level TEXT,
		score REAL,
		responded_at TEXT,
		FOREIGN KEY (survey_id) REFERENCES surveys(id)
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_survey ON assignments(survey_id);
	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		survey_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		question_id TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		responded_at TEXT,
		FOREIGN KEY (survey_id) REFERENCES surveys(id)
	);
	CREATE INDEX IF NOT EXISTS idx_responses_survey ON responses(survey_id);
`

// SurveyRepository reads survey records from a SQL database. Summaries are
// aggregated in SQL.
type SurveyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

type Option func(*SurveyRepository)

// WithLogger receives warnings about rows that decode only partially.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SurveyRepository) {
		if logger != nil {
			s.logger = logger.Named("survey-repository")
		}
	}
}

func NewSurveyRepository(db *sql.DB, opts ...Option) *SurveyRepository {
	s := &SurveyRepository{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *SurveyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SurveyRepository) ListActiveSurveys(ctx context.Context) ([]analytics.Survey, error) {
	const query = `SELECT id, title, active FROM surveys WHERE active = 1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListActiveSurveys: %w", err)
	}
	defer rows.Close()

	var results []analytics.Survey
	for rows.Next() {
		var r models.SurveyRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Active); err != nil {
			return nil, fmt.Errorf("scan ListActiveSurveys row: %w", err)
		}
		results = append(results, analytics.Survey{ID: r.ID, Title: r.Title, Active: r.Active})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListActiveSurveys: %w", err)
	}
	return results, nil
}

func (s *SurveyRepository) ListAssignments(ctx context.Context, surveyID string) ([]analytics.AssignmentRecord, error) {
	const query = `
		SELECT id, survey_id, user_id, user_name, area, risk_level, score, responded_at
		FROM assignments
		WHERE survey_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query ListAssignments: %w", err)
	}
	defer rows.Close()

	var results []analytics.AssignmentRecord
	for rows.Next() {
		var r models.AssignmentRow
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.UserID, &r.UserName, &r.Area, &r.RiskLevel, &r.Score, &r.RespondedAt); err != nil {
			return nil, fmt.Errorf("scan ListAssignments row: %w", err)
		}
		rec, err := r.ToRecord()
		if err != nil {
			s.logger.Warn("keeping row without response date",
				zap.String("op", "ListAssignments"),
				zap.String("survey_id", surveyID),
				zap.Error(err))
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListAssignments: %w", err)
	}
	return results, nil
}

func (s *SurveyRepository) ListResponses(ctx context.Context, surveyID string) ([]analytics.ResponseRecord, error) {
	const query = `
		SELECT id, survey_id, user_id, question_id, value, responded_at
		FROM responses
		WHERE survey_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query ListResponses: %w", err)
	}
	defer rows.Close()

	var results []analytics.ResponseRecord
	for rows.Next() {
		var r models.ResponseRow
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.UserID, &r.QuestionID, &r.Value, &r.RespondedAt); err != nil {
			return nil, fmt.Errorf("scan ListResponses row: %w", err)
		}
		rec, err := r.ToRecord()
		if err != nil {
			s.logger.Warn("keeping row without response date",
				zap.String("op", "ListResponses"),
				zap.String("survey_id", surveyID),
				zap.Error(err))
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListResponses: %w", err)
	}
	return results, nil
}

// GetSummary aggregates counts, the overall average, the risk distribution
// and per-area averages of one survey. Only answered assignments count as
// responded.
func (s *SurveyRepository) GetSummary(ctx context.Context, surveyID string) (analytics.SurveySummary, error) {
	const totalsQuery = `
		SELECT
			COUNT(a.id) AS assigned,
			COALESCE(SUM(CASE WHEN a.score IS NOT NULL AND a.risk_level IS NOT NULL THEN 1 ELSE 0 END), 0) AS answered,
			AVG(CASE WHEN a.risk_level IS NOT NULL THEN a.score END) AS average,
			COALESCE(SUM(CASE WHEN a.score IS NOT NULL AND a.risk_level = 'low' THEN 1 ELSE 0 END), 0) AS low,
			COALESCE(SUM(CASE WHEN a.score IS NOT NULL AND a.risk_level = 'medium' THEN 1 ELSE 0 END), 0) AS medium,
			COALESCE(SUM(CASE WHEN a.score IS NOT NULL AND a.risk_level = 'high' THEN 1 ELSE 0 END), 0) AS high
		FROM assignments AS a
		WHERE a.survey_id = ?
	`

	var t models.SummaryTotals
	err := s.db.QueryRowContext(ctx, totalsQuery, surveyID).
		Scan(&t.Assigned, &t.Answered, &t.Average, &t.Low, &t.Medium, &t.High)
	if err != nil {
		return analytics.SurveySummary{}, fmt.Errorf("query GetSummary: %w", err)
	}

	areas, err := s.areaAverages(ctx, surveyID)
	if err != nil {
		return analytics.SurveySummary{}, err
	}

	summary := analytics.SurveySummary{
		SurveyID:     surveyID,
		Assigned:     t.Assigned,
		Responded:    t.Answered,
		Distribution: analytics.Distribution{Low: t.Low, Medium: t.Medium, High: t.High},
		ByArea:       areas,
	}
	if t.Average.Valid {
		summary.OverallAverage = t.Average.Float64
	}
	return summary, nil
}

func (s *SurveyRepository) areaAverages(ctx context.Context, surveyID string) (analytics.AreaAverages, error) {
	const query = `
		SELECT
			CASE WHEN a.area = '' THEN ? ELSE a.area END AS area_name,
			AVG(a.score) AS average,
			COUNT(a.id) AS answered
		FROM assignments AS a
		WHERE a.survey_id = ? AND a.score IS NOT NULL AND a.risk_level IS NOT NULL
		GROUP BY area_name
		ORDER BY area_name
	`

	rows, err := s.db.QueryContext(ctx, query, analytics.UnspecifiedArea, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query GetSummary areas: %w", err)
	}
	defer rows.Close()

	results := analytics.AreaAverages{}
	for rows.Next() {
		var r models.AreaTotals
		if err := rows.Scan(&r.Area, &r.Average, &r.Answered); err != nil {
			return nil, fmt.Errorf("scan GetSummary area row: %w", err)
		}
		results = append(results, analytics.AreaAverage{Area: r.Area, Average: r.Average, Responded: r.Answered})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetSummary areas: %w", err)
	}
	return results, nil
}
