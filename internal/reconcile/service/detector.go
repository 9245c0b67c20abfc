package service

import (
	"fmt"
	"math"
	"strings"

	"pricebook-recon/internal/reconcile/model"
)

// prices closer than this are equal
const priceEpsilon = 1e-9

// detectItemChanges emits changes for every match, in match order.
func detectItemChanges(matches []model.MatchResult) []model.Change {
	changes := make([]model.Change, 0, len(matches))
	for _, m := range matches {
		switch m.MatchMethod {
		case model.MethodAdded:
			changes = append(changes, model.Change{
				ChangeType:  model.ChangeAdded,
				Confidence:  1.0,
				FieldName:   "item",
				NewValue:    m.NewItem,
				Description: "Added " + itemLabel(m.NewItem),
				MatchKey:    m.MatchKey,
				NewRef:      m.NewItem.Ref(),
				Metadata:    map[string]any{"match_method": string(m.MatchMethod)},
			})
		case model.MethodRemoved:
			changes = append(changes, model.Change{
				ChangeType:  model.ChangeRemoved,
				Confidence:  1.0,
				FieldName:   "item",
				OldValue:    m.OldItem,
				Description: "Removed " + itemLabel(m.OldItem),
				MatchKey:    m.MatchKey,
				OldRef:      m.OldItem.Ref(),
				Metadata:    map[string]any{"match_method": string(m.MatchMethod)},
			})
		case model.MethodExactKey, model.MethodFuzzy:
			changes = append(changes, comparePair(m)...)
		default:
			panic(fmt.Sprintf("unhandled match method %q", string(m.MatchMethod)))
		}
	}
	return changes
}

// comparePair diffs the two sides of a paired match.
func comparePair(m model.MatchResult) []model.Change {
	var out []model.Change
	base := model.Change{
		Confidence: m.Confidence,
		MatchKey:   m.MatchKey,
		OldRef:     m.OldItem.Ref(),
		NewRef:     m.NewItem.Ref(),
	}

	oldP, newP := m.OldItem.Price(), m.NewItem.Price()
	if math.Abs(newP-oldP) > priceEpsilon {
		c := base
		c.ChangeType = model.ChangePriceChanged
		c.FieldName = "price"
		c.OldValue = oldP
		c.NewValue = newP
		c.Description = describePriceChange(itemLabel(m.NewItem)+" price", oldP, newP)
		c.Metadata = priceDeltaMetadata(oldP, newP)
		out = append(out, c)
	}

	oldCur, newCur := m.OldItem.FirstString("currency"), m.NewItem.FirstString("currency")
	if oldCur != "" && newCur != "" && !strings.EqualFold(oldCur, newCur) {
		c := base
		c.ChangeType = model.ChangeCurrencyChanged
		c.FieldName = "currency"
		c.OldValue = oldCur
		c.NewValue = newCur
		c.Description = fmt.Sprintf("%s currency changed from %s to %s", itemLabel(m.NewItem), oldCur, newCur)
		c.Metadata = map[string]any{}
		out = append(out, c)
	}

	oldDesc, newDesc := m.OldItem.Description(), m.NewItem.Description()
	if oldDesc != "" && newDesc != "" && oldDesc != newDesc {
		c := base
		c.ChangeType = model.ChangeDescriptionChanged
		c.FieldName = "description"
		c.OldValue = oldDesc
		c.NewValue = newDesc
		c.Description = fmt.Sprintf("%s description changed", itemLabel(m.NewItem))
		c.Metadata = map[string]any{}
		out = append(out, c)
	}

	// exact keys imply equal normalized models, so only fuzzy pairs can be renames
	if m.MatchMethod == model.MethodFuzzy {
		oldModel, newModel := m.OldItem.Model(), m.NewItem.Model()
		if oldModel != newModel {
			c := base
			c.ChangeType = model.ChangeRenamed
			c.FieldName = "model"
			c.OldValue = oldModel
			c.NewValue = newModel
			c.Description = fmt.Sprintf("Renamed %s → %s", oldModel, newModel)
			c.Metadata = map[string]any{}
			if m.FuzzyScore != nil {
				c.Metadata["fuzzy_score"] = *m.FuzzyScore
			}
			out = append(out, c)
		}
	}
	return out
}

// describePriceChange renders "<what> changed from $100.00 to $125.00 (+25.0%)".
// Without a positive baseline the absolute delta is shown instead.
func describePriceChange(what string, oldV, newV float64) string {
	if oldV > 0 {
		pct := (newV - oldV) / oldV * 100
		return fmt.Sprintf("%s changed from $%.2f to $%.2f (%+.1f%%)", what, oldV, newV, pct)
	}
	return fmt.Sprintf("%s changed from $%.2f to $%.2f (%+.2f, no previous price)", what, oldV, newV, newV-oldV)
}

func priceDeltaMetadata(oldV, newV float64) map[string]any {
	md := map[string]any{"absolute_change": newV - oldV}
	if oldV > 0 {
		md["percent_change"] = (newV - oldV) / oldV * 100
	}
	return md
}

// itemLabel is "BB1100 US3" style text for descriptions.
func itemLabel(r model.Record) string {
	parts := []string{r.Model()}
	if s := r.Size(); s != "" {
		parts = append(parts, s)
	}
	if f := r.Finish(); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}
