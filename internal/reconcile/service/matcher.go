package service

import (
	"fmt"
	"math"
	"sort"

	"pricebook-recon/internal/reconcile/model"
)

const (
	// fuzzy pairs never reach EXACT, even at 100% text similarity
	maxFuzzyConfidence = 0.95
	// minimum share of common model characters relative to the shorter model
	minModelOverlap = 0.2
)

// workingSets holds the records not yet consumed by a matching phase.
type workingSets struct {
	old []entry
	new []entry
}

func newWorkingSets(oldRecs, newRecs []model.Record) workingSets {
	ws := workingSets{
		old: make([]entry, 0, len(oldRecs)),
		new: make([]entry, 0, len(newRecs)),
	}
	for i, r := range oldRecs {
		ws.old = append(ws.old, newEntry(i, r))
	}
	for i, r := range newRecs {
		ws.new = append(ws.new, newEntry(i, r))
	}
	return ws
}

// matchExact pairs records whose match keys are equal.
// When several new records share a key, the one with the closest price wins.
func matchExact(ws workingSets, cls Classifier) ([]model.MatchResult, workingSets) {
	byKey := make(map[string][]entry, len(ws.new))
	for _, e := range ws.new {
		byKey[e.matchKey] = append(byKey[e.matchKey], e)
	}
	used := make(map[int]bool, len(ws.new))

	results := make([]model.MatchResult, 0, len(ws.old))
	rest := workingSets{old: make([]entry, 0)}
	for _, o := range ws.old {
		n, ok := chooseBest(byKey[o.matchKey], o, used)
		if !ok {
			rest.old = append(rest.old, o)
			continue
		}
		used[n.pos] = true
		results = append(results, model.MatchResult{
			OldItem:         o.rec,
			NewItem:         n.rec,
			Confidence:      1.0,
			ConfidenceLevel: cls.Level(1.0),
			MatchKey:        o.matchKey,
			MatchMethod:     model.MethodExactKey,
			MatchReasons:    []string{"exact match key: " + o.matchKey},
		})
	}
	rest.new = unused(ws.new, used)
	return results, rest
}

// Выбираем неиспользованного кандидата с минимальной разницей цены
func chooseBest(cands []entry, o entry, used map[int]bool) (entry, bool) {
	var best entry
	found := false
	bestDist := math.MaxFloat64
	op := o.rec.Price()
	for _, c := range cands {
		if used[c.pos] {
			continue
		}
		if d := math.Abs(op - c.rec.Price()); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

type scoredEntry struct {
	entry
	score float64
}

// matchFuzzy pairs leftovers by search-text similarity inside each block.
// Candidates at or above threshold are tried best score first; the first one passing
// validation is taken and can not be claimed again.
func matchFuzzy(ws workingSets, scorer SimilarityScorer, threshold float64, cls Classifier) ([]model.MatchResult, workingSets) {
	if scorer == nil || !scorer.Enabled() || len(ws.old) == 0 || len(ws.new) == 0 {
		return nil, ws
	}
	blocks := indexEntries(ws.new)
	used := make(map[int]bool, len(ws.new))

	var results []model.MatchResult
	rest := workingSets{old: make([]entry, 0)}
	for _, o := range ws.old {
		retained := make([]scoredEntry, 0)
		for _, c := range blocks[o.blockKey] {
			if used[c.pos] {
				continue
			}
			if s := scorer.Ratio(o.search, c.search); s >= threshold {
				retained = append(retained, scoredEntry{entry: c, score: s})
			}
		}
		sort.SliceStable(retained, func(i, j int) bool { return retained[i].score > retained[j].score })

		accepted := false
		for _, c := range retained {
			overlap, ok := validateFuzzy(o, c.entry)
			if !ok {
				continue
			}
			used[c.pos] = true
			accepted = true
			score := c.score
			conf := math.Min(score/100, maxFuzzyConfidence)
			results = append(results, model.MatchResult{
				OldItem:         o.rec,
				NewItem:         c.rec,
				Confidence:      conf,
				ConfidenceLevel: cls.Level(conf),
				MatchKey:        o.matchKey,
				MatchMethod:     model.MethodFuzzy,
				MatchReasons: []string{
					fmt.Sprintf("fuzzy similarity %.1f%%", score),
					"same block: " + o.blockKey,
					fmt.Sprintf("model character overlap %.0f%%", overlap*100),
				},
				FuzzyScore: &score,
			})
			break
		}
		if !accepted {
			rest.old = append(rest.old, o)
		}
	}
	rest.new = unused(ws.new, used)
	return results, rest
}

// validateFuzzy checks the block keys agree and the normalized models share enough characters.
func validateFuzzy(o, n entry) (float64, bool) {
	if o.blockKey != n.blockKey {
		return 0, false
	}
	overlap := commonCharRatio(o.model, n.model)
	return overlap, overlap >= minModelOverlap
}

// residuals turns whatever is left into removed/added results.
// Confidence 1.0 is certainty about the absence, not about a pairing.
func residuals(ws workingSets, cls Classifier) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(ws.old)+len(ws.new))
	for _, o := range ws.old {
		results = append(results, model.MatchResult{
			OldItem:         o.rec,
			Confidence:      1.0,
			ConfidenceLevel: cls.Level(1.0),
			MatchKey:        o.matchKey,
			MatchMethod:     model.MethodRemoved,
			MatchReasons:    []string{"no counterpart in new snapshot"},
		})
	}
	for _, n := range ws.new {
		results = append(results, model.MatchResult{
			NewItem:         n.rec,
			Confidence:      1.0,
			ConfidenceLevel: cls.Level(1.0),
			MatchKey:        n.matchKey,
			MatchMethod:     model.MethodAdded,
			MatchReasons:    []string{"no counterpart in old snapshot"},
		})
	}
	return results
}

func unused(es []entry, used map[int]bool) []entry {
	out := make([]entry, 0, len(es))
	for _, e := range es {
		if !used[e.pos] {
			out = append(out, e)
		}
	}
	return out
}
