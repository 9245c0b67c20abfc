package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pricebook-recon/internal/reconcile/model"
	"pricebook-recon/internal/utils"
)

const (
	rulePriceMapping     = "price_mapping"
	rulePercentageMarkup = "percentage_markup"

	signatureDescLen = 50
)

// fields compared on rules that share a signature
var ruleCompareFields = []string{"rule_type", "percentage", "source_finish", "target_finish", "description"}

func ruleType(r model.Record) string {
	return strings.ToLower(r.FirstString("rule_type", "type"))
}

// ruleField reads a rule field in comparable form; percentages compare as numbers.
func ruleField(r model.Record, name string) string {
	switch name {
	case "rule_type":
		return ruleType(r)
	case "percentage":
		v, ok := r.FirstNonNull("percentage")
		if !ok {
			return ""
		}
		if f, ok := utils.ToFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return r.FirstString("percentage")
	default:
		return r.FirstString(name)
	}
}

// RuleSignature aligns pricing rules across snapshots.
// Unknown rule types fall back to type + the first 50 characters of the description.
func RuleSignature(r model.Record) string {
	t := ruleType(r)
	switch t {
	case rulePriceMapping:
		return strings.Join([]string{t, ruleField(r, "source_finish"), ruleField(r, "target_finish")}, keySep)
	case rulePercentageMarkup:
		return strings.Join([]string{t, ruleField(r, "percentage"), ruleField(r, "base_finish")}, keySep)
	default:
		desc := []rune(r.Description())
		if len(desc) > signatureDescLen {
			desc = desc[:signatureDescLen]
		}
		return t + keySep + string(desc)
	}
}

// ruleAnchor identifies a rule independent of its amount. Only percentage markups
// differ from their signature: a changed percentage keeps the same anchor.
func ruleAnchor(r model.Record) string {
	if ruleType(r) == rulePercentageMarkup {
		return rulePercentageMarkup + keySep + ruleField(r, "base_finish")
	}
	return RuleSignature(r)
}

type ruleIndex struct {
	bySig map[string]model.Record
	sigs  []string
}

// first rule wins on duplicate signatures
func indexRules(rules []model.Record) ruleIndex {
	idx := ruleIndex{bySig: make(map[string]model.Record, len(rules))}
	for _, r := range rules {
		if r == nil {
			continue
		}
		sig := RuleSignature(r)
		if _, dup := idx.bySig[sig]; dup {
			continue
		}
		idx.bySig[sig] = r
		idx.sigs = append(idx.sigs, sig)
	}
	return idx
}

// detectRuleChanges compares rule lists by signature. Rule comparison is exact: confidence 1.0.
func detectRuleChanges(oldRules, newRules []model.Record) []model.Change {
	oldIdx, newIdx := indexRules(oldRules), indexRules(newRules)

	union := make(map[string]struct{}, len(oldIdx.sigs)+len(newIdx.sigs))
	for _, s := range oldIdx.sigs {
		union[s] = struct{}{}
	}
	for _, s := range newIdx.sigs {
		union[s] = struct{}{}
	}
	sigs := make([]string, 0, len(union))
	for s := range union {
		sigs = append(sigs, s)
	}
	sort.Strings(sigs)

	var changes []model.Change
	var removed, added []string
	for _, sig := range sigs {
		o, inOld := oldIdx.bySig[sig]
		n, inNew := newIdx.bySig[sig]
		switch {
		case inOld && inNew:
			if diff := diffRuleFields(o, n); len(diff) > 0 {
				changes = append(changes, ruleModified(sig, o, n, diff))
			}
		case inOld:
			removed = append(removed, sig)
		case inNew:
			added = append(added, sig)
		}
	}

	// a percentage markup whose percentage moved shows up as removed+added; pair it back
	pairedNew := make(map[string]bool)
	for _, rs := range removed {
		o := oldIdx.bySig[rs]
		var match string
		for _, as := range added {
			if !pairedNew[as] && ruleType(o) == rulePercentageMarkup && ruleAnchor(newIdx.bySig[as]) == ruleAnchor(o) {
				match = as
				break
			}
		}
		if match == "" {
			changes = append(changes, ruleAddedOrRemoved(rs, o, false))
			continue
		}
		pairedNew[match] = true
		n := newIdx.bySig[match]
		changes = append(changes, ruleModified(rs, o, n, diffRuleFields(o, n)))
	}
	for _, as := range added {
		if !pairedNew[as] {
			changes = append(changes, ruleAddedOrRemoved(as, newIdx.bySig[as], true))
		}
	}
	return changes
}

func diffRuleFields(o, n model.Record) []string {
	var diff []string
	for _, f := range ruleCompareFields {
		if ruleField(o, f) != ruleField(n, f) {
			diff = append(diff, f)
		}
	}
	return diff
}

func ruleModified(sig string, o, n model.Record, fields []string) model.Change {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s %q → %q", f, ruleField(o, f), ruleField(n, f)))
	}
	return model.Change{
		ChangeType:  model.ChangeRuleChanged,
		Confidence:  1.0,
		FieldName:   "rule",
		OldValue:    o,
		NewValue:    n,
		Description: fmt.Sprintf("Rule modified: %s (%s)", describeRule(n), strings.Join(parts, ", ")),
		MatchKey:    sig,
		Metadata: map[string]any{
			"action":         "modified",
			"rule_type":      ruleType(n),
			"signature":      sig,
			"new_signature":  RuleSignature(n),
			"changed_fields": fields,
		},
	}
}

func ruleAddedOrRemoved(sig string, r model.Record, added bool) model.Change {
	c := model.Change{
		ChangeType: model.ChangeRuleChanged,
		Confidence: 1.0,
		FieldName:  "rule",
		MatchKey:   sig,
		Metadata: map[string]any{
			"rule_type": ruleType(r),
			"signature": sig,
		},
	}
	if added {
		c.NewValue = r
		c.Description = "Rule added: " + describeRule(r)
		c.Metadata["action"] = "added"
	} else {
		c.OldValue = r
		c.Description = "Rule removed: " + describeRule(r)
		c.Metadata["action"] = "removed"
	}
	return c
}

func describeRule(r model.Record) string {
	switch t := ruleType(r); t {
	case rulePriceMapping:
		return fmt.Sprintf("%s %s → %s", t, ruleField(r, "source_finish"), ruleField(r, "target_finish"))
	case rulePercentageMarkup:
		return fmt.Sprintf("%s %s%% on %s", t, ruleField(r, "percentage"), ruleField(r, "base_finish"))
	default:
		if d := r.Description(); d != "" {
			return t + ": " + d
		}
		return t
	}
}
