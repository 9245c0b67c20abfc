package model

import (
	"fmt"
	"time"
)

// ConfidenceLevel is the discrete bucket of a numeric confidence score.
type ConfidenceLevel string

const (
	ConfidenceExact   ConfidenceLevel = "EXACT"
	ConfidenceHigh    ConfidenceLevel = "HIGH"
	ConfidenceMedium  ConfidenceLevel = "MEDIUM"
	ConfidenceLow     ConfidenceLevel = "LOW"
	ConfidenceVeryLow ConfidenceLevel = "VERY_LOW"
)

// ConfidenceLevels lists every level, highest first.
var ConfidenceLevels = []ConfidenceLevel{
	ConfidenceExact, ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceVeryLow,
}

func (l ConfidenceLevel) Valid() bool {
	switch l {
	case ConfidenceExact, ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceVeryLow:
		return true
	}
	return false
}

// MatchMethod tells how a MatchResult was produced.
type MatchMethod string

const (
	MethodExactKey MatchMethod = "exact_key"
	MethodFuzzy    MatchMethod = "fuzzy"
	MethodAdded    MatchMethod = "added"
	MethodRemoved  MatchMethod = "removed"
)

func (m MatchMethod) Valid() bool {
	switch m {
	case MethodExactKey, MethodFuzzy, MethodAdded, MethodRemoved:
		return true
	}
	return false
}

// Paired reports whether the method yields both an old and a new item.
func (m MatchMethod) Paired() bool { return m == MethodExactKey || m == MethodFuzzy }

// ChangeType classifies a Change.
type ChangeType string

const (
	ChangeAdded               ChangeType = "added"
	ChangeRemoved             ChangeType = "removed"
	ChangePriceChanged        ChangeType = "price_changed"
	ChangeCurrencyChanged     ChangeType = "currency_changed"
	ChangeOptionAdded         ChangeType = "option_added"
	ChangeOptionRemoved       ChangeType = "option_removed"
	ChangeOptionAmountChanged ChangeType = "option_amount_changed"
	ChangeRuleChanged         ChangeType = "rule_changed"
	ChangeRenamed             ChangeType = "renamed"
	ChangeDescriptionChanged  ChangeType = "description_changed"
)

// ChangeTypes lists every change type in reporting order.
var ChangeTypes = []ChangeType{
	ChangeAdded, ChangeRemoved, ChangePriceChanged, ChangeCurrencyChanged,
	ChangeOptionAdded, ChangeOptionRemoved, ChangeOptionAmountChanged,
	ChangeRuleChanged, ChangeRenamed, ChangeDescriptionChanged,
}

// Entity kinds a change can refer to.
const (
	EntityItem   = "item"
	EntityRule   = "rule"
	EntityOption = "option"
)

// Entity returns which catalog entity the change type concerns.
// Every ChangeType must be listed here; an unknown value is a programming error.
func (t ChangeType) Entity() string {
	switch t {
	case ChangeAdded, ChangeRemoved, ChangePriceChanged, ChangeCurrencyChanged,
		ChangeRenamed, ChangeDescriptionChanged:
		return EntityItem
	case ChangeRuleChanged:
		return EntityRule
	case ChangeOptionAdded, ChangeOptionRemoved, ChangeOptionAmountChanged:
		return EntityOption
	}
	panic(fmt.Sprintf("unhandled change type %q", string(t)))
}

func (t ChangeType) Valid() bool {
	for _, ct := range ChangeTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// MatchResult pairs an old item with a new item, or records that one side is missing.
type MatchResult struct {
	OldItem         Record          `json:"old_item"`
	NewItem         Record          `json:"new_item"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	MatchKey        string          `json:"match_key"`
	MatchMethod     MatchMethod     `json:"match_method"`
	MatchReasons    []string        `json:"match_reasons"`
	FuzzyScore      *float64        `json:"fuzzy_score,omitempty"`
}

// Change is a single typed difference between the two snapshots.
type Change struct {
	ChangeType  ChangeType     `json:"change_type"`
	Confidence  float64        `json:"confidence"`
	FieldName   string         `json:"field_name"`
	OldValue    any            `json:"old_value"`
	NewValue    any            `json:"new_value"`
	Description string         `json:"description"`
	MatchKey    string         `json:"match_key"`
	OldRef      string         `json:"old_ref,omitempty"`
	NewRef      string         `json:"new_ref,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

// DiffResult is the outcome of one diff invocation.
// ReviewQueue is derived from Matches and ReviewThreshold and is never edited on its own.
type DiffResult struct {
	OldID           string         `json:"old_id"`
	NewID           string         `json:"new_id"`
	Timestamp       time.Time      `json:"timestamp"`
	Matches         []MatchResult  `json:"matches"`
	Changes         []Change       `json:"changes"`
	Summary         map[string]int `json:"summary"`
	ReviewQueue     []MatchResult  `json:"review_queue"`
	ReviewThreshold float64        `json:"review_threshold"`
}

// String returns a one-line summary, e.g. "Diff a → b: 3 matches, 2 changes (1 price_changed, 1 added), 0 for review".
func (d *DiffResult) String() string {
	counts := ""
	for _, ct := range ChangeTypes {
		n := d.Summary[string(ct)]
		if n == 0 {
			continue
		}
		if counts != "" {
			counts += ", "
		}
		counts += fmt.Sprintf("%d %s", n, ct)
	}
	if counts == "" {
		return fmt.Sprintf("Diff %s → %s: %d matches, no changes, %d for review",
			d.OldID, d.NewID, len(d.Matches), len(d.ReviewQueue))
	}
	return fmt.Sprintf("Diff %s → %s: %d matches, %d changes (%s), %d for review",
		d.OldID, d.NewID, len(d.Matches), len(d.Changes), counts, len(d.ReviewQueue))
}
