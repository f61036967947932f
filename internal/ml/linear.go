package ml

import (
	"fmt"
	"math"

	"heart-predictor/internal/features"

	"gonum.org/v1/gonum/floats"
)

const defaultDecisionThreshold = 0.5

// LogisticParams are the fitted weights of a binary logistic regression.
// Threshold defaults to 0.5 when omitted.
type LogisticParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    *float64  `json:"threshold,omitempty"`
}

type logisticRegression struct {
	coef      []float64
	intercept float64
	threshold float64
}

func newLogisticRegression(p *LogisticParams, numFeatures int) (*logisticRegression, error) {
	if len(p.Coefficients) != numFeatures {
		return nil, fmt.Errorf("expected %d coefficients, got %d", numFeatures, len(p.Coefficients))
	}
	for i, w := range p.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(p.Intercept) || math.IsInf(p.Intercept, 0) {
		return nil, fmt.Errorf("intercept is not finite")
	}

	threshold := defaultDecisionThreshold
	if p.Threshold != nil {
		threshold = *p.Threshold
		if !(threshold > 0 && threshold < 1) {
			return nil, fmt.Errorf("decision threshold %v outside (0, 1)", threshold)
		}
	}

	coef := make([]float64, len(p.Coefficients))
	copy(coef, p.Coefficients)
	return &logisticRegression{coef: coef, intercept: p.Intercept, threshold: threshold}, nil
}

func (lr *logisticRegression) NumFeatures() int { return len(lr.coef) }

func (lr *logisticRegression) Predict(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for r, row := range rows {
		if err := features.CheckShape(row, len(lr.coef)); err != nil {
			return nil, err
		}
		if sigmoid(floats.Dot(lr.coef, row)+lr.intercept) >= lr.threshold {
			out[r] = int(Positive)
		}
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
