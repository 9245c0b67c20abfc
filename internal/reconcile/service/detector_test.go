package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook-recon/internal/reconcile/model"
)

func paired(method model.MatchMethod, conf float64, o, n model.Record) model.MatchResult {
	return model.MatchResult{
		OldItem: o, NewItem: n, Confidence: conf, MatchMethod: method, MatchKey: BuildMatchKey(o),
	}
}

func TestDetectItemChangesPrice(t *testing.T) {
	m := paired(model.MethodExactKey, 1.0,
		item("o1", "BB1100", "price", 100.00),
		item("n1", "BB1100", "price", 125.00))

	changes := detectItemChanges([]model.MatchResult{m})

	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, model.ChangePriceChanged, c.ChangeType)
	assert.Equal(t, 100.00, c.OldValue)
	assert.Equal(t, 125.00, c.NewValue)
	assert.Contains(t, c.Description, "+25.0%")
	assert.Equal(t, "price", c.FieldName)
	assert.Equal(t, "o1", c.OldRef)
	assert.Equal(t, "n1", c.NewRef)
	assert.InDelta(t, 25.0, c.Metadata["percent_change"], 1e-9)
}

func TestDetectItemChangesPriceWithoutBaseline(t *testing.T) {
	m := paired(model.MethodExactKey, 1.0,
		item("o1", "BB1100", "price", "call for price"),
		item("n1", "BB1100", "list_price", "$42.00"))

	changes := detectItemChanges([]model.MatchResult{m})

	require.Len(t, changes, 1)
	assert.Equal(t, 0.0, changes[0].OldValue)
	assert.Equal(t, 42.0, changes[0].NewValue)
	assert.Contains(t, changes[0].Description, "no previous price")
	assert.NotContains(t, changes[0].Metadata, "percent_change")
}

func TestDetectItemChangesDescriptionAndCurrency(t *testing.T) {
	m := paired(model.MethodExactKey, 1.0,
		item("o1", "BB1100", "description", "Hinge", "currency", "USD"),
		item("n1", "BB1100", "description", "Hinge, ball bearing", "currency", "CAD"))

	changes := detectItemChanges([]model.MatchResult{m})

	require.Len(t, changes, 2)
	assert.Equal(t, model.ChangeCurrencyChanged, changes[0].ChangeType)
	assert.Equal(t, model.ChangeDescriptionChanged, changes[1].ChangeType)
	assert.Equal(t, "Hinge", changes[1].OldValue)
	assert.Equal(t, "Hinge, ball bearing", changes[1].NewValue)
}

func TestDetectItemChangesEmptyDescriptionIgnored(t *testing.T) {
	m := paired(model.MethodExactKey, 1.0,
		item("o1", "BB1100"),
		item("n1", "BB1100", "description", "Hinge"))
	assert.Empty(t, detectItemChanges([]model.MatchResult{m}))
}

func TestDetectItemChangesRename(t *testing.T) {
	score := 91.7
	m := paired(model.MethodFuzzy, 0.917, item("o1", "CTW-4"), item("n1", "CTW4"))
	m.FuzzyScore = &score

	changes := detectItemChanges([]model.MatchResult{m})

	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, model.ChangeRenamed, c.ChangeType)
	assert.Equal(t, "CTW-4", c.OldValue)
	assert.Equal(t, "CTW4", c.NewValue)
	assert.Equal(t, 0.917, c.Confidence)
	assert.Equal(t, 91.7, c.Metadata["fuzzy_score"])
	assert.Equal(t, "Renamed CTW-4 → CTW4", c.Description)
}

func TestDetectItemChangesNoRenameOnExact(t *testing.T) {
	m := paired(model.MethodExactKey, 1.0, item("o1", "bb1100"), item("n1", "BB1100"))
	assert.Empty(t, detectItemChanges([]model.MatchResult{m}))
}

func TestDetectItemChangesAddedRemoved(t *testing.T) {
	matches := []model.MatchResult{
		{OldItem: item("o1", "A1"), Confidence: 1, MatchMethod: model.MethodRemoved, MatchKey: "k1"},
		{NewItem: item("n1", "B1"), Confidence: 1, MatchMethod: model.MethodAdded, MatchKey: "k2"},
	}
	changes := detectItemChanges(matches)

	require.Len(t, changes, 2)
	assert.Equal(t, model.ChangeRemoved, changes[0].ChangeType)
	assert.Equal(t, "o1", changes[0].OldRef)
	assert.Nil(t, changes[0].NewValue)
	assert.Equal(t, model.ChangeAdded, changes[1].ChangeType)
	assert.Equal(t, "n1", changes[1].NewRef)
	assert.Equal(t, 1.0, changes[1].Confidence)
}

func TestRuleSignature(t *testing.T) {
	long := strings.Repeat("x", 60)
	tests := []struct {
		name string
		rule model.Record
		want string
	}{
		{"price mapping", model.Record{"rule_type": "price_mapping", "source_finish": "US3", "target_finish": "US4", "percentage": 10}, "price_mapping#US3#US4"},
		{"percentage markup", model.Record{"rule_type": "percentage_markup", "percentage": "20", "base_finish": "US10A"}, "percentage_markup#20#US10A"},
		{"type alias", model.Record{"type": "Percentage_Markup", "percentage": 20.0, "base_finish": "US10A"}, "percentage_markup#20#US10A"},
		{"generic truncated", model.Record{"rule_type": "freight", "description": long}, "freight#" + strings.Repeat("x", 50)},
		{"empty rule", model.Record{}, "#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleSignature(tt.rule))
		})
	}
}

func TestDetectRuleChanges(t *testing.T) {
	t.Run("percentage change is one modification", func(t *testing.T) {
		oldRule := model.Record{"rule_type": "percentage_markup", "percentage": 20, "base_finish": "US10A"}
		newRule := model.Record{"rule_type": "percentage_markup", "percentage": 25, "base_finish": "US10A"}

		changes := detectRuleChanges([]model.Record{oldRule}, []model.Record{newRule})

		require.Len(t, changes, 1)
		c := changes[0]
		assert.Equal(t, model.ChangeRuleChanged, c.ChangeType)
		assert.Equal(t, oldRule, c.OldValue)
		assert.Equal(t, newRule, c.NewValue)
		assert.Equal(t, 1.0, c.Confidence)
		assert.Equal(t, "modified", c.Metadata["action"])
		assert.Equal(t, []string{"percentage"}, c.Metadata["changed_fields"])
	})

	t.Run("same signature differing description", func(t *testing.T) {
		o := model.Record{"rule_type": "price_mapping", "source_finish": "US3", "target_finish": "US4", "description": "a"}
		n := model.Record{"rule_type": "price_mapping", "source_finish": "US3", "target_finish": "US4", "description": "b"}

		changes := detectRuleChanges([]model.Record{o}, []model.Record{n})

		require.Len(t, changes, 1)
		assert.Equal(t, []string{"description"}, changes[0].Metadata["changed_fields"])
	})

	t.Run("added and removed", func(t *testing.T) {
		o := model.Record{"rule_type": "price_mapping", "source_finish": "US3", "target_finish": "US4"}
		n := model.Record{"rule_type": "price_mapping", "source_finish": "US3", "target_finish": "US26D"}

		changes := detectRuleChanges([]model.Record{o}, []model.Record{n})

		require.Len(t, changes, 2)
		assert.Equal(t, "removed", changes[0].Metadata["action"])
		assert.Nil(t, changes[0].NewValue)
		assert.Equal(t, o, changes[0].OldValue)
		assert.Equal(t, "added", changes[1].Metadata["action"])
		assert.Nil(t, changes[1].OldValue)
		assert.Equal(t, n, changes[1].NewValue)
	})

	t.Run("markups on different finishes are not paired", func(t *testing.T) {
		o := model.Record{"rule_type": "percentage_markup", "percentage": 20, "base_finish": "US10A"}
		n := model.Record{"rule_type": "percentage_markup", "percentage": 25, "base_finish": "US3"}
		assert.Len(t, detectRuleChanges([]model.Record{o}, []model.Record{n}), 2)
	})

	t.Run("unchanged and unknown types", func(t *testing.T) {
		rules := []model.Record{
			{"rule_type": "mystery", "description": "whatever"},
			{"percentage": "n/a"},
			nil,
		}
		assert.Empty(t, detectRuleChanges(rules, rules))
	})
}

func TestDetectOptionChanges(t *testing.T) {
	oldOpts := []model.Record{
		{"option_code": "EPT", "option_name": "Electric power transfer", "amount": 25.00},
		{"option_code": "CON", "price": "$40.00"},
		{"option_code": "", "amount": 5.0},
		{"code": "SS", "amount": 12.0},
	}
	newOpts := []model.Record{
		{"option_code": "EPT", "option_name": "Electric power transfer", "amount": 27.50},
		{"code": "SS", "amount": 12.0},
		{"option_code": "NRP", "name": "Non-removable pin", "amount": 8.0},
	}

	changes := detectOptionChanges(oldOpts, newOpts)

	require.Len(t, changes, 3)
	// code order: CON, EPT, NRP
	assert.Equal(t, model.ChangeOptionRemoved, changes[0].ChangeType)
	assert.Equal(t, "CON", changes[0].OldRef)

	amt := changes[1]
	assert.Equal(t, model.ChangeOptionAmountChanged, amt.ChangeType)
	assert.Equal(t, 25.00, amt.OldValue)
	assert.Equal(t, 27.50, amt.NewValue)
	assert.Equal(t, "Electric power transfer", amt.Metadata["option_name"])
	assert.Contains(t, amt.Description, "+10.0%")

	assert.Equal(t, model.ChangeOptionAdded, changes[2].ChangeType)
	assert.Equal(t, "NRP", changes[2].NewRef)
	assert.Equal(t, "option#NRP", changes[2].MatchKey)
}
