package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
)

type SurveyRow struct {
	ID     string
	Title  string
	Active bool
}

type AssignmentRow struct {
	ID          string
	SurveyID    string
	UserID      string
	UserName    string
	Area        string
	RiskLevel   sql.NullString
	Score       sql.NullFloat64
	RespondedAt sql.NullString
}

// ToRecord converts the row, parsing the stored response timestamp. An
// unparseable timestamp leaves ResponseDate nil and is reported alongside the
// otherwise complete record.
func (r AssignmentRow) ToRecord() (analytics.AssignmentRecord, error) {
	rec := analytics.AssignmentRecord{
		ID:       r.ID,
		SurveyID: r.SurveyID,
		UserID:   r.UserID,
		UserName: r.UserName,
		Area:     r.Area,
	}
	if r.RiskLevel.Valid {
		rec.RiskLevel = analytics.RiskLevel(r.RiskLevel.String)
	}
	if r.Score.Valid {
		v := r.Score.Float64
		rec.Score = &v
	}
	when, err := parseStamp(r.RespondedAt)
	rec.ResponseDate = when
	if err != nil {
		return rec, fmt.Errorf("assignment %s: %w", r.ID, err)
	}
	return rec, nil
}

type ResponseRow struct {
	ID          string
	SurveyID    string
	UserID      string
	QuestionID  string
	Value       string
	RespondedAt sql.NullString
}

// ToRecord converts the row; like AssignmentRow.ToRecord it keeps the record
// when the timestamp cannot be parsed.
func (r ResponseRow) ToRecord() (analytics.ResponseRecord, error) {
	when, err := parseStamp(r.RespondedAt)
	rec := analytics.ResponseRecord{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		UserID:       r.UserID,
		QuestionID:   r.QuestionID,
		Value:        r.Value,
		ResponseDate: when,
	}
	if err != nil {
		return rec, fmt.Errorf("response %s: %w", r.ID, err)
	}
	return rec, nil
}

// SummaryTotals is the per-survey aggregate computed in SQL.
type SummaryTotals struct {
	Assigned int
	Answered int
	Average  sql.NullFloat64
	Low      int
	Medium   int
	High     int
}

type AreaTotals struct {
	Area     string
	Average  float64
	Answered int
}

func parseStamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := analytics.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatStamp renders t the way timestamps are stored.
func FormatStamp(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
