package service

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/godilite/wellness-insights/internal/analytics"
)

// CacheKey builds a stable key for a normalized filter set. Selection order
// does not affect the key.
func CacheKey(prefix string, fs analytics.FilterSet) string {
	risks := make([]string, len(fs.RiskLevels))
	for i, r := range fs.RiskLevels {
		risks[i] = string(r)
	}
	return fmt.Sprintf("%s:%s:%s:s=%s:a=%s:r=%s",
		prefix,
		dateKey(fs.Range.From),
		dateKey(fs.Range.To),
		sortedJoin(fs.SurveyIDs),
		sortedJoin(fs.Areas),
		sortedJoin(risks),
	)
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format("2006-01-02")
}

func sortedJoin(items []string) string {
	if len(items) == 0 {
		return "*"
	}
	s := make([]string, len(items))
	for i, it := range items {
		s[i] = url.QueryEscape(it)
	}
	slices.Sort(s)
	return strings.Join(s, ",")
}
