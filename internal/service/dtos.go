package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/godilite/wellness-insights/internal/analytics"
	"github.com/godilite/wellness-insights/internal/report"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("risk", func(fl validator.FieldLevel) bool {
		return analytics.RiskLevel(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
	})
	return v
}

// InsightsQuery is the transport-neutral shape of an insights or export request.
// Dates are calendar dates; an empty bound leaves that side of the range open.
type InsightsQuery struct {
	From        string   `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To          string   `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
	SurveyIDs   []string `json:"surveyIds" query:"surveyIds" validate:"max=100,dive,max=64"`
	Areas       []string `json:"areas" query:"areas" validate:"max=100,dive,max=120"`
	RiskLevels  []string `json:"riskLevels" query:"riskLevels" validate:"max=3,dive,risk"`
	GeneratedBy string   `json:"generatedBy" query:"generatedBy" validate:"max=200"`
	Signature   string   `json:"signature" query:"signature" validate:"max=200"`
}

// Validate checks field formats. Failures wrap ErrInvalidFilter and the
// underlying validator.ValidationErrors.
func (q InsightsQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return nil
}

// Filter validates q and converts it into a normalized filter set.
func (q InsightsQuery) Filter() (analytics.FilterSet, error) {
	if err := q.Validate(); err != nil {
		return analytics.FilterSet{}, err
	}

	from, err := analytics.ParseDate(q.From)
	if err != nil {
		return analytics.FilterSet{}, fmt.Errorf("%w: from: %v", ErrInvalidFilter, err)
	}
	to, err := analytics.ParseDate(q.To)
	if err != nil {
		return analytics.FilterSet{}, fmt.Errorf("%w: to: %v", ErrInvalidFilter, err)
	}

	fs := analytics.FilterSet{
		SurveyIDs: q.SurveyIDs,
		Areas:     q.Areas,
		Range:     analytics.DateRange{From: from, To: to},
	}
	for _, r := range q.RiskLevels {
		fs.RiskLevels = append(fs.RiskLevels, analytics.RiskLevel(r))
	}
	return NormalizeFilter(fs)
}

func (q InsightsQuery) Meta() report.Meta {
	return report.Meta{
		GeneratedBy: strings.TrimSpace(q.GeneratedBy),
		Signature:   strings.TrimSpace(q.Signature),
	}
}
