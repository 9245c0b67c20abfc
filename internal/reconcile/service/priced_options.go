package service

import (
	"fmt"
	"math"
	"sort"

	"pricebook-recon/internal/reconcile/model"
)

// indexOptions keys priced options by code; entries without a code are skipped,
// the first entry wins on duplicates.
func indexOptions(opts []model.Record) map[string]model.Record {
	idx := make(map[string]model.Record, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		code := o.FirstString(model.OptionCodeFields...)
		if code == "" {
			continue
		}
		if _, dup := idx[code]; !dup {
			idx[code] = o
		}
	}
	return idx
}

// detectOptionChanges compares priced options by code, in code order.
func detectOptionChanges(oldOpts, newOpts []model.Record) []model.Change {
	oldIdx, newIdx := indexOptions(oldOpts), indexOptions(newOpts)

	codes := make([]string, 0, len(oldIdx)+len(newIdx))
	for c := range oldIdx {
		codes = append(codes, c)
	}
	for c := range newIdx {
		if _, ok := oldIdx[c]; !ok {
			codes = append(codes, c)
		}
	}
	sort.Strings(codes)

	var changes []model.Change
	for _, code := range codes {
		o, inOld := oldIdx[code]
		n, inNew := newIdx[code]
		switch {
		case inOld && inNew:
			oldAmt := o.FirstFloat(model.OptionAmountFields...)
			newAmt := n.FirstFloat(model.OptionAmountFields...)
			if math.Abs(newAmt-oldAmt) <= priceEpsilon {
				continue
			}
			md := priceDeltaMetadata(oldAmt, newAmt)
			md["option_code"] = code
			md["option_name"] = optionName(n)
			changes = append(changes, model.Change{
				ChangeType:  model.ChangeOptionAmountChanged,
				Confidence:  1.0,
				FieldName:   "amount",
				OldValue:    oldAmt,
				NewValue:    newAmt,
				Description: describePriceChange(optionLabel(code, n)+" amount", oldAmt, newAmt),
				MatchKey:    optionKey(code),
				OldRef:      code,
				NewRef:      code,
				Metadata:    md,
			})
		case inNew:
			amt := n.FirstFloat(model.OptionAmountFields...)
			changes = append(changes, model.Change{
				ChangeType:  model.ChangeOptionAdded,
				Confidence:  1.0,
				FieldName:   "option",
				NewValue:    n,
				Description: fmt.Sprintf("Option added: %s at $%.2f", optionLabel(code, n), amt),
				MatchKey:    optionKey(code),
				NewRef:      code,
				Metadata:    map[string]any{"option_code": code, "option_name": optionName(n), "amount": amt},
			})
		case inOld:
			amt := o.FirstFloat(model.OptionAmountFields...)
			changes = append(changes, model.Change{
				ChangeType:  model.ChangeOptionRemoved,
				Confidence:  1.0,
				FieldName:   "option",
				OldValue:    o,
				Description: fmt.Sprintf("Option removed: %s (was $%.2f)", optionLabel(code, o), amt),
				MatchKey:    optionKey(code),
				OldRef:      code,
				Metadata:    map[string]any{"option_code": code, "option_name": optionName(o), "amount": amt},
			})
		}
	}
	return changes
}

func optionKey(code string) string { return "option" + keySep + code }

func optionName(o model.Record) string { return o.FirstString(model.OptionNameFields...) }

func optionLabel(code string, o model.Record) string {
	if name := optionName(o); name != "" && name != code {
		return fmt.Sprintf("%s (%s)", code, name)
	}
	return code
}
