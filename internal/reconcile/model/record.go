package model

import (
	"fmt"
	"strconv"
	"strings"

	"pricebook-recon/internal/utils"
)

// Candidate field lists, in priority order.
var (
	PriceFields        = []string{"base_price", "price", "list_price", "net_price"}
	OptionAmountFields = []string{"amount", "price", "adder", "base_price"}
	OptionCodeFields   = []string{"option_code", "code"}
	OptionNameFields   = []string{"option_name", "name", "description"}
	RefFields          = []string{"id", "product_id", "sku", "model"}
)

// Record is a catalog row as produced by extraction: an opaque key/value mapping.
// The engine only reads it.
type Record map[string]any

// FirstNonNull returns the first value among keys that is present and not nil.
// Empty strings count as null.
func (r Record) FirstNonNull(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// FirstString is FirstNonNull rendered as trimmed text ("" when absent).
func (r Record) FirstString(keys ...string) string {
	v, ok := r.FirstNonNull(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// FirstFloat is FirstNonNull parsed as a number. Missing or malformed values yield 0.0.
func (r Record) FirstFloat(keys ...string) float64 {
	v, ok := r.FirstNonNull(keys...)
	if !ok {
		return 0
	}
	f, ok := utils.ToFloat(v)
	if !ok {
		return 0
	}
	return f
}

func (r Record) Model() string        { return r.FirstString("model", "sku") }
func (r Record) SKU() string          { return r.FirstString("sku") }
func (r Record) Manufacturer() string { return r.FirstString("manufacturer") }
func (r Record) Family() string       { return r.FirstString("family", "series") }
func (r Record) Size() string         { return r.FirstString("size", "size_attr") }
func (r Record) Finish() string       { return r.FirstString("finish", "finish_code") }
func (r Record) Description() string  { return r.FirstString("description") }
func (r Record) Price() float64       { return r.FirstFloat(PriceFields...) }

// Identifiable reports whether the record carries a model or a sku.
func (r Record) Identifiable() bool { return r.Model() != "" }

// Ref is a short human reference for the record (id, sku or model).
func (r Record) Ref() string { return r.FirstString(RefFields...) }

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Snapshot is one version of an extracted price book.
type Snapshot struct {
	ID      string   `json:"id" yaml:"id"`
	Items   []Record `json:"items" yaml:"items"`
	Rules   []Record `json:"rules" yaml:"rules"`
	Options []Record `json:"options" yaml:"options"`
}
