package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// ParseNumber parses price-book values such as "$1,234.50", "1 234,50", "(12.00)", "25%".
// NBSP/NNBSP and currency symbols are ignored. A lone comma followed by one or two digits
// is treated as a decimal separator, any other comma as a thousands separator.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("\u00A0", "", "\u202F", "", "\u2009", "", " ", "", "\t", "").Replace(s)
	s = normalizeSeparators(s)

	// only digits, dot and minus survive (currency signs, %, letters)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	if commas == 0 {
		return s
	}
	if strings.Contains(s, ".") {
		// 1,234.50
		return strings.ReplaceAll(s, ",", "")
	}
	if commas == 1 {
		i := strings.IndexByte(s, ',')
		tail := s[i+1:]
		digits := 0
		for _, r := range tail {
			if r < '0' || r > '9' {
				break
			}
			digits++
		}
		if digits > 0 && digits <= 2 {
			// 12,5 / 12,50
			return s[:i] + "." + tail
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// ToFloat converts a decoded JSON/YAML/spreadsheet value to float64.
// ok is false for nil, booleans and strings that do not parse.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		return ParseNumber(n)
	case interface{ String() string }:
		return ParseNumber(n.String())
	default:
		return 0, false
	}
}
