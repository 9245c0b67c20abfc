package handler

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"pricebook-recon/internal/reconcile/model"
)

// form fields accepted as diff options
var optionFields = []string{
	"exact_match_threshold",
	"high_confidence_threshold",
	"medium_confidence_threshold",
	"low_confidence_threshold",
	"review_threshold",
	"enable_fuzzy_matching",
	"fuzzy_threshold",
	"fuzzy_scorer",
}

// formOptions накладывает непустые поля формы на базовую конфигурацию.
// Значения остаются строками, OptionsFromMap декодирует их сам.
func formOptions(r *http.Request, base map[string]any) map[string]any {
	m := make(map[string]any, len(base)+len(optionFields))
	maps.Copy(m, base)
	for _, f := range optionFields {
		if v := strings.TrimSpace(r.FormValue(f)); v != "" {
			m[f] = v
		}
	}
	return m
}

// changeTypes parses "price_changed,renamed".
func changeTypes(s string) ([]model.ChangeType, error) {
	var out []model.ChangeType
	for _, p := range splitList(s) {
		p = strings.ToLower(p)
		ct := model.ChangeType(p)
		if !ct.Valid() {
			return nil, fmt.Errorf("unknown change type %q", p)
		}
		out = append(out, ct)
	}
	return out, nil
}

// splitList режет "a, b,,c" на непустые элементы.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, log *zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// toFloat returns def for empty or malformed input; NaN is left to the caller's validation.
func toFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
