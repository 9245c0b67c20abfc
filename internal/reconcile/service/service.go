package service

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pricebook-recon/internal/reconcile/model"
)

// Engine runs catalog diffs with one validated configuration.
// It holds no state between calls and is safe for concurrent use.
type Engine struct {
	opt    model.Options
	cls    Classifier
	scorer SimilarityScorer
	logger zerolog.Logger
	now    func() time.Time
}

// EngineOption is a functional option for configuring Engine
type EngineOption func(*Engine)

// WithLogger sets the logger used for phase statistics.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithScorer replaces the configured similarity scorer.
// It has no effect when fuzzy matching is disabled.
func WithScorer(s SimilarityScorer) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine validates opt and builds an Engine. Invalid thresholds fail here,
// never during a diff.
func NewEngine(opt model.Options, opts ...EngineOption) (*Engine, error) {
	cls, err := NewClassifier(opt)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		opt:    opt,
		cls:    cls,
		scorer: ScorerFor(opt),
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	if !opt.EnableFuzzyMatching {
		e.scorer = NoopScorer{}
	}
	return e, nil
}

// CreateDiff builds an engine for opt and diffs the two snapshots.
func CreateDiff(oldSnap, newSnap model.Snapshot, opt model.Options, opts ...EngineOption) (model.DiffResult, error) {
	e, err := NewEngine(opt, opts...)
	if err != nil {
		return model.DiffResult{}, err
	}
	return e.CreateDiff(oldSnap, newSnap), nil
}

// CreateDiff matches items, detects changes and assembles the result.
func (e *Engine) CreateDiff(oldSnap, newSnap model.Snapshot) model.DiffResult {
	log := e.logger.With().Str("old_id", oldSnap.ID).Str("new_id", newSnap.ID).Logger()

	// 1) записи без model/sku не участвуют
	oldItems, skippedOld := identifiable(oldSnap.Items)
	newItems, skippedNew := identifiable(newSnap.Items)

	// 2) exact → fuzzy → residuals
	ws := newWorkingSets(oldItems, newItems)
	exact, ws := matchExact(ws, e.cls)
	log.Debug().Int("matched", len(exact)).Int("old_left", len(ws.old)).Int("new_left", len(ws.new)).Msg("exact phase")

	fuzzy, ws := matchFuzzy(ws, e.scorer, e.opt.FuzzyThreshold, e.cls)
	if e.scorer.Enabled() {
		log.Debug().Int("matched", len(fuzzy)).Int("old_left", len(ws.old)).Int("new_left", len(ws.new)).Msg("fuzzy phase")
	} else {
		log.Debug().Msg("fuzzy phase skipped")
	}

	matches := make([]model.MatchResult, 0, len(oldItems)+len(newItems))
	matches = append(matches, exact...)
	matches = append(matches, fuzzy...)
	matches = append(matches, residuals(ws, e.cls)...)

	// 3) items, then rules, then options
	changes := detectItemChanges(matches)
	changes = append(changes, detectRuleChanges(oldSnap.Rules, newSnap.Rules)...)
	changes = append(changes, detectOptionChanges(oldSnap.Options, newSnap.Options)...)

	queue := reviewQueue(matches, e.cls)
	res := model.DiffResult{
		OldID:           oldSnap.ID,
		NewID:           newSnap.ID,
		Timestamp:       e.now(),
		Matches:         matches,
		Changes:         changes,
		ReviewQueue:     queue,
		ReviewThreshold: e.cls.ReviewThreshold(),
	}
	res.Summary = summarize(res, skippedOld, skippedNew)

	log.Debug().
		Int("matches", len(matches)).
		Int("changes", len(changes)).
		Int("review_queue", len(queue)).
		Msg("diff done")
	return res
}

func identifiable(items []model.Record) ([]model.Record, int) {
	out := make([]model.Record, 0, len(items))
	skipped := 0
	for _, r := range items {
		if r == nil || !r.Identifiable() {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, skipped
}

func reviewQueue(matches []model.MatchResult, cls Classifier) []model.MatchResult {
	queue := make([]model.MatchResult, 0)
	for _, m := range matches {
		if cls.NeedsReview(m.Confidence) {
			queue = append(queue, m)
		}
	}
	return queue
}

// summarize counts matches by method and level and changes by type and entity.
func summarize(res model.DiffResult, skippedOld, skippedNew int) map[string]int {
	s := map[string]int{
		"total_matches":  len(res.Matches),
		"exact_matches":  0,
		"fuzzy_matches":  0,
		"added":          0,
		"removed":        0,
		"total_changes":  len(res.Changes),
		"review_queue":   len(res.ReviewQueue),
		"skipped_old":    skippedOld,
		"skipped_new":    skippedNew,
		"item_changes":   0,
		"rule_changes":   0,
		"option_changes": 0,
	}
	for _, l := range model.ConfidenceLevels {
		s[levelKey(l)] = 0
	}
	for _, ct := range model.ChangeTypes {
		s[string(ct)] = 0
	}

	for _, m := range res.Matches {
		switch m.MatchMethod {
		case model.MethodExactKey:
			s["exact_matches"]++
		case model.MethodFuzzy:
			s["fuzzy_matches"]++
		}
		s[levelKey(m.ConfidenceLevel)]++
	}
	// "added"/"removed" are both match methods and change types; the change count is kept
	for _, c := range res.Changes {
		s[string(c.ChangeType)]++
		s[c.ChangeType.Entity()+"_changes"]++
	}
	return s
}

func levelKey(l model.ConfidenceLevel) string {
	return "confidence_" + strings.ToLower(string(l))
}
