package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pricebook-recon/internal/reconcile/model"
)

func TestLevenshteinScorer(t *testing.T) {
	s := LevenshteinScorer{}
	assert.True(t, s.Enabled())
	assert.InDelta(t, 80.0, s.Ratio("CTW-4", "CTW4"), 1e-9)
	assert.InDelta(t, 100.0, s.Ratio("", ""), 1e-9)
	assert.InDelta(t, 0.0, s.Ratio("ABC", ""), 1e-9)
	assert.InDelta(t, 0.0, s.Ratio("ABC", "XYZ"), 1e-9)
	assert.InDelta(t, 50.0, s.Ratio("CTW4", "CWT4"), 1e-9)
}

func TestDamerauScorer(t *testing.T) {
	s := DamerauScorer{}
	assert.True(t, s.Enabled())
	assert.InDelta(t, 75.0, s.Ratio("CTW4", "CWT4"), 1e-9, "transposition is one edit")
	assert.InDelta(t, 80.0, s.Ratio("CTW-4", "CTW4"), 1e-9)
	assert.Equal(t, 3, damerauLevenshtein("kitten", "sitting"))
}

func TestNoopScorer(t *testing.T) {
	s := NoopScorer{}
	assert.False(t, s.Enabled())
	assert.Zero(t, s.Ratio("A", "A"))
}

func TestScorerFor(t *testing.T) {
	opt := model.DefaultOptions()
	assert.IsType(t, LevenshteinScorer{}, ScorerFor(opt))

	opt.FuzzyScorer = "Damerau"
	assert.IsType(t, DamerauScorer{}, ScorerFor(opt))

	opt.EnableFuzzyMatching = false
	assert.IsType(t, NoopScorer{}, ScorerFor(opt))
}

func TestCommonCharRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"CTW-4", "CTW4", 1},
		{"ABC", "XYZ", 0},
		{"AB", "", 0},
		{"AAB", "AB", 1},
		{"ABCDE", "AXXXXXXXXX", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, commonCharRatio(tt.a, tt.b), 1e-9)
		})
	}
}
