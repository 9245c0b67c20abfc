package service

import (
	"pricebook-recon/internal/reconcile/model"
)

// Classifier buckets confidence scores and decides review-queue membership.
type Classifier struct {
	exact, high, medium, low float64
	review                   float64
}

// NewClassifier validates the thresholds and builds a Classifier.
func NewClassifier(opt model.Options) (Classifier, error) {
	if err := opt.Validate(); err != nil {
		return Classifier{}, err
	}
	return Classifier{
		exact:  opt.ExactMatchThreshold,
		high:   opt.HighConfidenceThreshold,
		medium: opt.MediumConfidenceThreshold,
		low:    opt.LowConfidenceThreshold,
		review: opt.ReviewThreshold,
	}, nil
}

// Level maps a score in [0,1] to its bucket.
func (c Classifier) Level(score float64) model.ConfidenceLevel {
	switch {
	case score >= c.exact:
		return model.ConfidenceExact
	case score >= c.high:
		return model.ConfidenceHigh
	case score >= c.medium:
		return model.ConfidenceMedium
	case score >= c.low:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}

// NeedsReview reports whether a match with this score belongs in the review queue.
func (c Classifier) NeedsReview(score float64) bool { return score < c.review }

// ReviewThreshold is the configured review cut-off.
func (c Classifier) ReviewThreshold() float64 { return c.review }
