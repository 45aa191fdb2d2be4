package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/repository/models"
)

// SaveSurvey inserts or replaces a survey.
func (s *SurveyRepository) SaveSurvey(ctx context.Context, sv analytics.Survey) error {
	const stmt = `
		INSERT INTO surveys (id, title, active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, active = excluded.active
	`
	if _, err := s.db.ExecContext(ctx, stmt, sv.ID, sv.Title, sv.Active); err != nil {
		return fmt.Errorf("exec SaveSurvey: %w", err)
	}
	return nil
}

// SaveAssignments inserts or replaces assignments in a single transaction.
// Malformed records are rejected before anything is written.
func (s *SurveyRepository) SaveAssignments(ctx context.Context, records ...analytics.AssignmentRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	const stmt = `
		INSERT OR REPLACE INTO assignments
			(id, survey_id, user_id, user_name, area, risk_level, score, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	return s.inTx(ctx, "SaveAssignments", stmt, len(records), func(i int) []any {
		r := records[i]
		var risk any
		if r.RiskLevel != "" {
			risk = string(r.RiskLevel)
		}
		var score any
		if r.Score != nil {
			score = *r.Score
		}
		return []any{r.ID, r.SurveyID, r.UserID, r.UserName, r.Area, risk, score, models.FormatStamp(r.ResponseDate)}
	})
}

// SaveResponses inserts or replaces responses in a single transaction.
func (s *SurveyRepository) SaveResponses(ctx context.Context, records ...analytics.ResponseRecord) error {
	const stmt = `
		INSERT OR REPLACE INTO responses
			(id, survey_id, user_id, question_id, value, responded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	return s.inTx(ctx, "SaveResponses", stmt, len(records), func(i int) []any {
		r := records[i]
		return []any{r.ID, r.SurveyID, r.UserID, r.QuestionID, r.Value, models.FormatStamp(r.ResponseDate)}
	})
}

func (s *SurveyRepository) inTx(ctx context.Context, op, stmt string, n int, args func(int) []any) (err error) {
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", op, err)
	}
	defer func(p *sql.Stmt) { _ = p.Close() }(prepared)

	for i := 0; i < n; i++ {
		if _, err = prepared.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("exec %s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}
