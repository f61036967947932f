package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"heart-predictor/internal/collector"
	"heart-predictor/internal/features"
	"heart-predictor/internal/ml"
	"heart-predictor/internal/storage"

	"github.com/rs/zerolog/log"
)

const maxRequestBody = 1 << 20

// PredictRequest carries one feature vector, either positionally in model
// order or by feature name. Exactly one of Features and Values must be set.
type PredictRequest struct {
	Features  []float64          `json:"features,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

// PredictResponse represents the prediction result
type PredictResponse struct {
	Label        int       `json:"label"`
	Positive     bool      `json:"positive"`
	Message      string    `json:"message"`
	ModelVersion string    `json:"model_version"`
	RequestID    string    `json:"request_id"`
	LatencyMs    float64   `json:"latency_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Feature string `json:"feature,omitempty"`
}

// FeaturesResponse lists the model inputs in order with their legal ranges
// and the seeded default vector.
type FeaturesResponse struct {
	Features []features.FeatureSpec `json:"features"`
	Defaults []float64              `json:"defaults"`
	Seed     int64                  `json:"seed"`
}

type HealthResponse struct {
	Status        string  `json:"status"`
	ModelVersion  string  `json:"model_version"`
	Features      int     `json:"features"`
	Storage       bool    `json:"storage"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// OutcomesResponse lists stored outcomes of one model version, oldest first.
type OutcomesResponse struct {
	ModelVersion string            `json:"model_version"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	Count        int               `json:"count"`
	Outcomes     []storage.Outcome `json:"outcomes"`
}

// ModelInfoResponse describes the loaded model.
type ModelInfoResponse struct {
	ml.ModelMetadata
	AgeSeconds float64 `json:"age_seconds"`
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	var req PredictRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err), Kind: "bad_request"})
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request: trailing data after JSON body", Kind: "bad_request"})
		return
	}

	var v features.FeatureVector
	switch {
	case req.Features != nil && req.Values != nil:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "send either features or values, not both", Kind: "bad_request"})
		return
	case req.Values != nil:
		var err error
		if v, err = collector.FromMap(req.Values, s.specs); err != nil {
			s.writeClassifyError(w, err)
			return
		}
	case req.Features != nil:
		v = features.FeatureVector(req.Features)
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "features or values are required", Kind: "bad_request"})
		return
	}

	res, err := s.classify(r.Context(), v, "api", req.RequestID)
	if err != nil {
		s.writeClassifyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		Label:        int(res.label),
		Positive:     res.label == ml.Positive,
		Message:      res.label.Message(),
		ModelVersion: s.classifier.Metadata().Version,
		RequestID:    res.requestID,
		LatencyMs:    float64(res.latency.Microseconds()) / 1000,
		Timestamp:    time.Now(),
	})
}

func (s *Server) writeClassifyError(w http.ResponseWriter, err error) {
	status, kind := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var iie *features.InvalidInputError
	if errors.As(err, &iie) {
		resp.Feature = iie.Name
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("classification failed")
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleAPIFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FeaturesResponse{
		Features: s.specs,
		Defaults: s.defaults,
		Seed:     s.opts.DefaultSeed,
	})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "outcome storage is disabled", Kind: "not_found"})
		return
	}
	counts, err := s.opts.Store.Counts()
	if err != nil {
		log.Error().Err(err).Msg("failed to read outcome counts")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to read outcome counts", Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// defaultOutcomeWindow is the lookback used when no start is given.
const defaultOutcomeWindow = 24 * time.Hour

// handleAPIOutcomes serves ?version=&start=&end= (RFC3339). version defaults
// to the loaded model, end to now and start to a day before end.
func (s *Server) handleAPIOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "outcome storage is disabled", Kind: "not_found"})
		return
	}

	q := r.URL.Query()
	version := q.Get("version")
	if version == "" {
		version = s.classifier.Metadata().Version
	}

	end := time.Now()
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid end: %v", err), Kind: "bad_request"})
			return
		}
		end = t
	}
	start := end.Add(-defaultOutcomeWindow)
	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid start: %v", err), Kind: "bad_request"})
			return
		}
		start = t
	}
	if start.After(end) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "start is after end", Kind: "bad_request"})
		return
	}

	outcomes, err := s.opts.Store.Outcomes(version, start, end)
	if err != nil {
		log.Error().Err(err).Str("version", version).Msg("failed to read outcomes")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to read outcomes", Kind: "internal"})
		return
	}
	if outcomes == nil {
		outcomes = []storage.Outcome{}
	}
	writeJSON(w, http.StatusOK, OutcomesResponse{
		ModelVersion: version,
		Start:        start,
		End:          end,
		Count:        len(outcomes),
		Outcomes:     outcomes,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	md := s.classifier.Metadata()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		ModelVersion:  md.Version,
		Features:      len(md.Features),
		Storage:       s.opts.Store != nil,
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	md := s.classifier.Metadata()
	writeJSON(w, http.StatusOK, ModelInfoResponse{
		ModelMetadata: md,
		AgeSeconds:    md.Age(time.Now()).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write json response")
	}
}

// compile-time check that the store satisfies the interface
var _ OutcomeStore = (*storage.Store)(nil)
