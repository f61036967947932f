// Package collector turns operator input into feature vectors. It produces
// the seeded default vector shown before any interaction and parses values
// submitted through the form, the JSON API and the command line.
package collector

import (
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"heart-predictor/internal/features"
)

const maxSpan = 1 << 53

// Defaults draws one integer per feature from a PRNG seeded with seed. Each
// value lies in [ceil(min), floor(max)]; a feature whose range holds no
// integer defaults to its min. The same specs and seed always give the same
// vector. Ranges too wide to draw from default to their midpoint.
func Defaults(specs []features.FeatureSpec, seed int64) features.FeatureVector {
	rng := rand.New(rand.NewSource(seed))

	v := make(features.FeatureVector, len(specs))
	for i, s := range specs {
		lo, hi := math.Ceil(s.Min), math.Floor(s.Max)
		if lo > hi {
			v[i] = s.Min
			continue
		}
		if hi-lo >= maxSpan {
			v[i] = math.Round(lo/2 + hi/2)
			continue
		}
		v[i] = lo + float64(rng.Int63n(int64(hi-lo)+1))
	}
	return v
}

// Step is the input granularity for a feature: 1 when both bounds are whole
// numbers, 0.1 otherwise.
func Step(s features.FeatureSpec) float64 {
	if s.Min == math.Trunc(s.Min) && s.Max == math.Trunc(s.Max) {
		return 1
	}
	return 0.1
}

// ParseValue parses one raw input for the feature at index i.
func ParseValue(i int, s features.FeatureSpec, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &features.InvalidInputError{Index: i, Name: s.Name, Reason: "is missing"}
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &features.InvalidInputError{Index: i, Name: s.Name, Value: strconv.Quote(raw), Reason: "is not a number"}
	}
	return x, nil
}

// FromForm reads one field per feature, named after the feature. Every field
// is required and the resulting vector is validated against specs.
func FromForm(form url.Values, specs []features.FeatureSpec) (features.FeatureVector, error) {
	v := make(features.FeatureVector, len(specs))
	for i, s := range specs {
		x, err := ParseValue(i, s, form.Get(s.Name))
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	if err := features.Validate(specs, v); err != nil {
		return nil, err
	}
	return v, nil
}

// FromMap orders named values by specs. Unknown names are rejected.
func FromMap(values map[string]float64, specs []features.FeatureSpec) (features.FeatureVector, error) {
	index := indexByName(specs)
	if unknown := unknownNames(values, index); len(unknown) > 0 {
		return nil, &features.InvalidInputError{Index: -1, Name: unknown[0], Reason: "is not a model feature"}
	}

	v := make(features.FeatureVector, len(specs))
	for i, s := range specs {
		x, ok := values[s.Name]
		if !ok {
			return nil, &features.InvalidInputError{Index: i, Name: s.Name, Reason: "is missing"}
		}
		v[i] = x
	}
	if err := features.Validate(specs, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseAssignments applies name=value overrides to a copy of base and
// validates the result. base must have one value per spec.
func ParseAssignments(assignments []string, specs []features.FeatureSpec, base features.FeatureVector) (features.FeatureVector, error) {
	if err := features.CheckShape(base, len(specs)); err != nil {
		return nil, err
	}
	index := indexByName(specs)

	v := base.Clone()
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want name=value", a)
		}
		i, known := index[name]
		if !known {
			return nil, &features.InvalidInputError{Index: -1, Name: name, Reason: "is not a model feature"}
		}
		x, err := ParseValue(i, specs[i], raw)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	if err := features.Validate(specs, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ToMap pairs each value with its feature name.
func ToMap(v features.FeatureVector, specs []features.FeatureSpec) map[string]float64 {
	out := make(map[string]float64, len(specs))
	for i, s := range specs {
		if i < len(v) {
			out[s.Name] = v[i]
		}
	}
	return out
}

func indexByName(specs []features.FeatureSpec) map[string]int {
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}
	return index
}

func unknownNames(values map[string]float64, index map[string]int) []string {
	var unknown []string
	for name := range values {
		if _, ok := index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
