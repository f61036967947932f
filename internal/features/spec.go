// Package features describes the model's input domain: the ordered list of
// feature specs derived from the reference dataset and the vectors submitted
// for classification.
package features

import (
	"fmt"
	"math"
	"strconv"
)

// FeatureSpec is the name and legal numeric range of one model input column.
type FeatureSpec struct {
	Name string  `json:"name" yaml:"name"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Contains reports whether x lies within [Min, Max].
func (s FeatureSpec) Contains(x float64) bool {
	return x >= s.Min && x <= s.Max
}

// FeatureVector is one ordered set of values submitted for a single prediction.
type FeatureVector []float64

// Clone returns a copy that does not share the backing array.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// Names returns the feature names in order.
func Names(specs []FeatureSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// CheckShape fails with ShapeMismatchError when len(v) != n.
func CheckShape(v FeatureVector, n int) error {
	if len(v) != n {
		return &ShapeMismatchError{Want: n, Got: len(v)}
	}
	return nil
}

// CheckFinite rejects NaN and infinite values.
func CheckFinite(v FeatureVector) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &InvalidInputError{Index: i, Value: FormatValue(x), Reason: "is not a finite number"}
		}
	}
	return nil
}

// Validate checks a vector against the ordered specs: exact length, finite
// values and every value inside its observed range. Out-of-range values are
// rejected, not clamped.
func Validate(specs []FeatureSpec, v FeatureVector) error {
	if err := CheckShape(v, len(specs)); err != nil {
		return err
	}
	for i, x := range v {
		s := specs[i]
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &InvalidInputError{Index: i, Name: s.Name, Value: FormatValue(x), Reason: "is not a finite number"}
		}
		if !s.Contains(x) {
			return &InvalidInputError{
				Index:  i,
				Name:   s.Name,
				Value:  FormatValue(x),
				Reason: fmt.Sprintf("is outside range [%s, %s]", FormatValue(s.Min), FormatValue(s.Max)),
			}
		}
	}
	return nil
}

// FormatValue renders a feature value the shortest way that round-trips.
func FormatValue(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
