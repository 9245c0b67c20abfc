package service

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"pricebook-recon/internal/reconcile/model"
)

// SimilarityScorer rates two search texts on a 0..100 scale.
// A scorer that is not Enabled turns the fuzzy phase off.
type SimilarityScorer interface {
	Ratio(a, b string) float64
	Enabled() bool
}

// LevenshteinScorer is the default scorer: 100 * (1 - distance/maxLen).
type LevenshteinScorer struct{}

func (LevenshteinScorer) Enabled() bool { return true }

func (LevenshteinScorer) Ratio(a, b string) float64 {
	return distanceRatio(a, b, levenshtein.ComputeDistance)
}

// NoopScorer disables fuzzy matching.
type NoopScorer struct{}

func (NoopScorer) Enabled() bool { return false }

func (NoopScorer) Ratio(_, _ string) float64 { return 0 }

// ScorerFor picks the scorer an Options value asks for.
func ScorerFor(opt model.Options) SimilarityScorer {
	if !opt.EnableFuzzyMatching {
		return NoopScorer{}
	}
	switch strings.ToLower(opt.FuzzyScorer) {
	case model.ScorerDamerau:
		return DamerauScorer{}
	default:
		return LevenshteinScorer{}
	}
}

func distanceRatio(a, b string, dist func(a, b string) int) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	m := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 100 * (1 - float64(dist(a, b))/float64(m))
}

// commonCharRatio is |set(a) ∩ set(b)| / min(len(a), len(b)).
func commonCharRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter := min(la, lb)
	if shorter == 0 {
		return 0
	}
	inA := make(map[rune]struct{}, la)
	for _, r := range a {
		inA[r] = struct{}{}
	}
	seen := make(map[rune]struct{}, lb)
	common := 0
	for _, r := range b {
		if _, ok := inA[r]; !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		common++
	}
	return float64(common) / float64(shorter)
}
