package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"pricebook-recon/internal/reconcile/model"
)

const keySep = "#"

// inch/foot marks in sizes: 4.5" / 4½″ / 4'
var sizeQuotes = strings.NewReplacer(`"`, "", "'", "", "″", "", "′", "", "“", "", "”", "", "‘", "", "’", "")

// BuildBlockKey is the coarse key bounding fuzzy candidates: lower(manufacturer)#lower(family).
func BuildBlockKey(r model.Record) string {
	return strings.ToLower(collapseSpaces(r.Manufacturer())) + keySep + strings.ToLower(collapseSpaces(r.Family()))
}

// BuildItemKey is normalize(model)#normalize(size)#normalize(finish).
func BuildItemKey(r model.Record) string {
	return stripModelWhitespace(r.Model()) + keySep + normalizeSize(r.Size()) + keySep + normalizeFinish(r.Finish())
}

// BuildMatchKey joins block and item keys. Price and description never take part.
func BuildMatchKey(r model.Record) string {
	return BuildBlockKey(r) + keySep + BuildItemKey(r)
}

// BuildSearchText is the fuzzy-matching input: the identifying fields upper-cased and space-joined.
func BuildSearchText(r model.Record) string {
	parts := []string{
		r.FirstString("model"),
		r.FirstString("sku"),
		r.Description(),
		r.FirstString("series"),
		r.FirstString("family"),
		r.Size(),
		r.Finish(),
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = collapseSpaces(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.ToUpper(norm.NFKC.String(strings.Join(out, " ")))
}

// stripModelWhitespace upper-cases a model and drops only whitespace ("BB 1100" → "BB1100").
// Punctuation such as '-' or '/' is kept: "CTW-4" and "CTW4" get different keys and only
// the fuzzy phase may pair them.
func stripModelWhitespace(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func normalizeSize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(sizeQuotes.Replace(s)), ""))
}

// only letters and digits survive: "US-26D" / "us 26d" → "US26D"
func normalizeFinish(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b = append(b, unicode.ToUpper(r))
		}
	}
	return string(b)
}

// Схлопывание пробелов
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
