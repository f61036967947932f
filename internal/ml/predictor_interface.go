// Package ml serves a single pre-fit binary classifier. The classifier is
// loaded once from a versioned artifact, validated, and then shared read-only
// by every request for the lifetime of the process.
//
// Model families are pluggable behind the Classifier interface; the artifact's
// "kind" selects the implementation at load time.
package ml

import "heart-predictor/internal/common"

// Classifier is a fitted model that maps rows of feature values to labels.
// Implementations must not mutate their parameters in Predict, so a single
// instance can serve concurrent callers without locking.
type Classifier interface {
	// Predict returns one label per row. Every row must have NumFeatures values.
	Predict(rows [][]float64) ([]int, error)

	// NumFeatures is the number of input columns the model was trained on.
	NumFeatures() int
}

// Label is the discrete outcome of a classification.
type Label int

const (
	Negative Label = 0 // no heart disease
	Positive Label = 1 // heart disease
)

// Valid reports whether l is one of the two known classes.
func (l Label) Valid() bool {
	return l == Negative || l == Positive
}

func (l Label) String() string {
	switch l {
	case Negative:
		return "no_disease"
	case Positive:
		return "disease"
	default:
		return "unknown"
	}
}

// Message is the fixed human-readable text shown for the label.
func (l Label) Message() string {
	if l == Positive {
		return common.MessageDisease
	}
	return common.MessageNoDisease
}
