package model

import (
	"fmt"
	"slices"
	"strings"
)

// ReviewFilter narrows the review queue. Zero values mean "no restriction".
type ReviewFilter struct {
	Levels        []ConfidenceLevel
	Methods       []MatchMethod
	MaxConfidence float64 // when > 0, keep only confidence < MaxConfidence
}

// NewReviewFilter builds a filter from user input such as "low,very_low" and "fuzzy".
// Level names are case-insensitive; unknown names are an error.
func NewReviewFilter(levels, methods []string, maxConfidence float64) (ReviewFilter, error) {
	var f ReviewFilter
	for _, s := range levels {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		l := ConfidenceLevel(strings.ToUpper(s))
		if !l.Valid() {
			return ReviewFilter{}, fmt.Errorf("unknown confidence level %q", s)
		}
		f.Levels = append(f.Levels, l)
	}
	for _, s := range methods {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		m := MatchMethod(strings.ToLower(s))
		if !m.Valid() {
			return ReviewFilter{}, fmt.Errorf("unknown match method %q", s)
		}
		f.Methods = append(f.Methods, m)
	}
	if maxConfidence < 0 || maxConfidence > 1 || maxConfidence != maxConfidence {
		return ReviewFilter{}, fmt.Errorf("max confidence %v out of [0,1]", maxConfidence)
	}
	f.MaxConfidence = maxConfidence
	return f, nil
}

// FilterReviewQueue returns the review-queue entries matching f, in queue order.
func (d *DiffResult) FilterReviewQueue(f ReviewFilter) []MatchResult {
	out := make([]MatchResult, 0, len(d.ReviewQueue))
	for _, m := range d.ReviewQueue {
		if len(f.Levels) > 0 && !slices.Contains(f.Levels, m.ConfidenceLevel) {
			continue
		}
		if len(f.Methods) > 0 && !slices.Contains(f.Methods, m.MatchMethod) {
			continue
		}
		if f.MaxConfidence > 0 && m.Confidence >= f.MaxConfidence {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FilterChanges returns the changes of the given types (all changes when none given).
func (d *DiffResult) FilterChanges(types ...ChangeType) []Change {
	if len(types) == 0 {
		return slices.Clone(d.Changes)
	}
	out := make([]Change, 0)
	for _, c := range d.Changes {
		if slices.Contains(types, c.ChangeType) {
			out = append(out, c)
		}
	}
	return out
}

// ChangeSummary counts changes per type for the requested types (every type when none
// given), plus "total" for the filtered set.
func (d *DiffResult) ChangeSummary(types ...ChangeType) map[string]int {
	if len(types) == 0 {
		types = ChangeTypes
	}
	s := make(map[string]int, len(types)+1)
	for _, t := range types {
		s[string(t)] = 0
	}
	s["total"] = 0
	for _, c := range d.Changes {
		if slices.Contains(types, c.ChangeType) {
			s[string(c.ChangeType)]++
			s["total"]++
		}
	}
	return s
}
