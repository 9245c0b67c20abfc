package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid diff configuration")

// ConfigError describes one rejected configuration value.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid diff configuration: %s=%v: %s", e.Field, e.Value, e.Message)
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// Scorer names accepted in Options.FuzzyScorer.
const (
	ScorerLevenshtein = "levenshtein"
	ScorerDamerau     = "damerau"
)

// Options configures one diff.
type Options struct {
	ExactMatchThreshold       float64 `mapstructure:"exact_match_threshold" json:"exact_match_threshold"`             // 0.98
	HighConfidenceThreshold   float64 `mapstructure:"high_confidence_threshold" json:"high_confidence_threshold"`     // 0.8
	MediumConfidenceThreshold float64 `mapstructure:"medium_confidence_threshold" json:"medium_confidence_threshold"` // 0.6
	LowConfidenceThreshold    float64 `mapstructure:"low_confidence_threshold" json:"low_confidence_threshold"`       // 0.4
	ReviewThreshold           float64 `mapstructure:"review_threshold" json:"review_threshold"`                       // matches below go to review
	EnableFuzzyMatching       bool    `mapstructure:"enable_fuzzy_matching" json:"enable_fuzzy_matching"`
	FuzzyThreshold            float64 `mapstructure:"fuzzy_threshold" json:"fuzzy_threshold"` // 0..100
	FuzzyScorer               string  `mapstructure:"fuzzy_scorer" json:"fuzzy_scorer"`       // levenshtein | damerau
}

// DefaultOptions returns the stock thresholds with fuzzy matching on.
func DefaultOptions() Options {
	return Options{
		ExactMatchThreshold:       0.98,
		HighConfidenceThreshold:   0.8,
		MediumConfidenceThreshold: 0.6,
		LowConfidenceThreshold:    0.4,
		ReviewThreshold:           0.6,
		EnableFuzzyMatching:       true,
		FuzzyThreshold:            70,
		FuzzyScorer:               ScorerLevenshtein,
	}
}

// OptionsFromMap overlays a free-form configuration map onto DefaultOptions.
// Values are decoded weakly ("0.7", 1, "true" are all accepted); unknown keys are ignored.
func OptionsFromMap(m map[string]any) (Options, error) {
	opt := DefaultOptions()
	if len(m) == 0 {
		return opt, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opt,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return opt, err
	}
	if err := dec.Decode(m); err != nil {
		return opt, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return opt, opt.Validate()
}

// Validate checks ranges and that the classifier thresholds strictly decrease.
func (o Options) Validate() error {
	bounded := []struct {
		name string
		v    float64
	}{
		{"exact_match_threshold", o.ExactMatchThreshold},
		{"high_confidence_threshold", o.HighConfidenceThreshold},
		{"medium_confidence_threshold", o.MediumConfidenceThreshold},
		{"low_confidence_threshold", o.LowConfidenceThreshold},
		{"review_threshold", o.ReviewThreshold},
	}
	for _, b := range bounded {
		if b.v < 0 || b.v > 1 || b.v != b.v {
			return &ConfigError{Field: b.name, Value: b.v, Message: "must be within [0,1]"}
		}
	}
	for i := 1; i < 4; i++ {
		if bounded[i].v >= bounded[i-1].v {
			return &ConfigError{
				Field:   bounded[i].name,
				Value:   bounded[i].v,
				Message: fmt.Sprintf("must be strictly below %s (%v)", bounded[i-1].name, bounded[i-1].v),
			}
		}
	}
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 100 || o.FuzzyThreshold != o.FuzzyThreshold {
		return &ConfigError{Field: "fuzzy_threshold", Value: o.FuzzyThreshold, Message: "must be within [0,100]"}
	}
	switch strings.ToLower(o.FuzzyScorer) {
	case "", ScorerLevenshtein, ScorerDamerau:
	default:
		return &ConfigError{Field: "fuzzy_scorer", Value: o.FuzzyScorer, Message: "must be levenshtein or damerau"}
	}
	return nil
}
