package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
	"go.uber.org/zap"
)

// flexString decodes ids and answers the backend sends either as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*f = flexString(n.String())
	}
	return nil
}

// flexFloat decodes numbers that may arrive as numeric strings. Null and
// blank strings leave it unset.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexFloat{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexFloat{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("expected numeric string, got %q", s)
		}
		*f = flexFloat{value: v, set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat{value: v, set: true}
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

func (f flexFloat) count() int { return int(f.value) }

type wireSurvey struct {
	ID     flexString `json:"id"`
	Title  string     `json:"titulo"`
	Status string     `json:"estado"`
}

type wireAssignment struct {
	ID           flexString `json:"id"`
	AssignmentID flexString `json:"id_asignacion"`
	UserID       flexString `json:"id_usuario"`
	UserName     string     `json:"usuario_nombre"`
	Area         string     `json:"area"`
	RiskLevel    string     `json:"nivel_riesgo"`
	Score        flexFloat  `json:"puntaje_total"`
	ResponseDate string     `json:"fecha_respuesta"`
}

type wireResponse struct {
	ID           flexString `json:"id"`
	ResponseID   flexString `json:"id_respuesta"`
	UserID       flexString `json:"id_usuario"`
	QuestionID   flexString `json:"id_pregunta"`
	Value        flexString `json:"respuesta"`
	ResponseDate string     `json:"fecha_respuesta"`
}

type wireDistribution struct {
	Low    flexFloat `json:"bajo"`
	Medium flexFloat `json:"medio"`
	High   flexFloat `json:"alto"`
}

type wireSummary struct {
	Assigned     flexFloat              `json:"asignados"`
	Responded    flexFloat              `json:"respondidos"`
	Overall      flexFloat              `json:"promedio_general"`
	Distribution wireDistribution       `json:"distribucion"`
	ByArea       analytics.AreaAverages `json:"por_area"`
}

// riskLevels maps the backend's risk vocabulary onto analytics.RiskLevel.
var riskLevels = map[string]analytics.RiskLevel{
	"bajo":   analytics.RiskLow,
	"medio":  analytics.RiskMedium,
	"alto":   analytics.RiskHigh,
	"low":    analytics.RiskLow,
	"medium": analytics.RiskMedium,
	"high":   analytics.RiskHigh,
}

// RiskLevel translates a backend risk label. Unknown labels are passed
// through lowercased so validation can reject them.
func RiskLevel(label string) analytics.RiskLevel {
	l := strings.ToLower(strings.TrimSpace(label))
	if r, ok := riskLevels[l]; ok {
		return r
	}
	return analytics.RiskLevel(l)
}

func (c *Client) parseDate(field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := analytics.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		c.logger.Debug("unparseable date from backend", zap.String("field", field), zap.String("value", raw))
		return nil
	}
	return &t
}

// ListActiveSurveys implements service.SurveySource.
func (c *Client) ListActiveSurveys(ctx context.Context) ([]analytics.Survey, error) {
	body, err := c.get(ctx, "encuestas/", url.Values{"estado": {"activas"}})
	if err != nil {
		return nil, err
	}
	wire, err := decodeList[wireSurvey](body)
	if err != nil {
		return nil, err
	}

	out := make([]analytics.Survey, 0, len(wire))
	for _, w := range wire {
		if w.ID == "" {
			continue
		}
		out = append(out, analytics.Survey{ID: string(w.ID), Title: w.Title, Active: true})
	}
	return out, nil
}

// ListAssignments implements service.SurveySource.
func (c *Client) ListAssignments(ctx context.Context, surveyID string) ([]analytics.AssignmentRecord, error) {
	body, err := c.get(ctx, "encuestas/"+url.PathEscape(surveyID)+"/asignaciones", nil)
	if err != nil {
		return nil, err
	}
	wire, err := decodeList[wireAssignment](body)
	if err != nil {
		return nil, err
	}

	out := make([]analytics.AssignmentRecord, 0, len(wire))
	for i, w := range wire {
		id := string(w.AssignmentID)
		if id == "" {
			id = string(w.ID)
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", surveyID, i)
		}
		rec := analytics.AssignmentRecord{
			ID:           id,
			SurveyID:     surveyID,
			UserID:       string(w.UserID),
			UserName:     w.UserName,
			Area:         strings.TrimSpace(w.Area),
			Score:        w.Score.ptr(),
			ResponseDate: c.parseDate("fecha_respuesta", w.ResponseDate),
		}
		if w.RiskLevel != "" {
			rec.RiskLevel = RiskLevel(w.RiskLevel)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListResponses implements service.SurveySource.
func (c *Client) ListResponses(ctx context.Context, surveyID string) ([]analytics.ResponseRecord, error) {
	body, err := c.get(ctx, "encuestas/respuestas/encuesta/"+url.PathEscape(surveyID), nil)
	if err != nil {
		return nil, err
	}
	wire, err := decodeList[wireResponse](body)
	if err != nil {
		return nil, err
	}

	out := make([]analytics.ResponseRecord, 0, len(wire))
	for i, w := range wire {
		id := string(w.ResponseID)
		if id == "" {
			id = string(w.ID)
		}
		if id == "" {
			id = fmt.Sprintf("%s-r%d", surveyID, i)
		}
		out = append(out, analytics.ResponseRecord{
			ID:           id,
			SurveyID:     surveyID,
			UserID:       string(w.UserID),
			QuestionID:   string(w.QuestionID),
			Value:        string(w.Value),
			ResponseDate: c.parseDate("fecha_respuesta", w.ResponseDate),
		})
	}
	return out, nil
}

// GetSummary implements service.SurveySource.
func (c *Client) GetSummary(ctx context.Context, surveyID string) (analytics.SurveySummary, error) {
	body, err := c.get(ctx, "encuestas/"+url.PathEscape(surveyID)+"/resultados", nil)
	if err != nil {
		return analytics.SurveySummary{}, err
	}

	var w wireSummary
	if err := json.Unmarshal(body, &w); err != nil {
		return analytics.SurveySummary{}, fmt.Errorf("%w: decode summary: %v", ErrBackend, err)
	}

	return analytics.SurveySummary{
		SurveyID:       surveyID,
		Assigned:       w.Assigned.count(),
		Responded:      w.Responded.count(),
		OverallAverage: w.Overall.value,
		Distribution: analytics.Distribution{
			Low:    w.Distribution.Low.count(),
			Medium: w.Distribution.Medium.count(),
			High:   w.Distribution.High.count(),
		},
		ByArea: w.ByArea,
	}, nil
}
