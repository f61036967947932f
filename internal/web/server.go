// Package web serves the prediction form, the JSON API and the operational
// endpoints (health, model info, Prometheus metrics) over HTTP.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"heart-predictor/internal/collector"
	"heart-predictor/internal/features"
	"heart-predictor/internal/ml"
	"heart-predictor/internal/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Classifier is the part of *ml.Service the server needs.
type Classifier interface {
	Classify(ctx context.Context, v features.FeatureVector) (ml.Label, error)
	Features() []features.FeatureSpec
	Metadata() ml.ModelMetadata
}

// OutcomeStore records classification outcomes. *storage.Store implements it.
type OutcomeStore interface {
	StoreOutcome(o storage.Outcome) error
	Outcomes(modelVersion string, start, end time.Time) ([]storage.Outcome, error)
	Counts() (storage.Counts, error)
}

// Recorder receives HTTP and storage metrics. *metrics.MetricsWrapper
// implements it.
type Recorder interface {
	HTTPRequestObserve(route string, code int, d time.Duration)
	OutcomeStoredInc()
	StorageErrorInc()
}

// Options configures a Server. Store and Recorder are optional.
type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ProgressDelay time.Duration // pause before a form result is rendered
	ContactURL    string
	DefaultSeed   int64
	Gatherer      prometheus.Gatherer // nil means the default gatherer

	Store    OutcomeStore
	Recorder Recorder
}

// Server provides the HTTP surface of the prediction service.
type Server struct {
	classifier Classifier
	opts       Options
	specs      []features.FeatureSpec
	defaults   features.FeatureVector
	pages      *template.Template
	router     *mux.Router
	server     *http.Server
	started    time.Time
}

// NewServer builds the router. The default vector is drawn once here so every
// page load shows the same starting values.
func NewServer(c Classifier, opts Options) *Server {
	specs := c.Features()
	s := &Server{
		classifier: c,
		opts:       opts,
		specs:      specs,
		defaults:   collector.Defaults(specs, opts.DefaultSeed),
		pages:      template.Must(template.New("page").Funcs(template.FuncMap{"num": features.FormatValue}).Parse(pageTemplate)),
		started:    time.Now(),
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/predict", s.handlePredictPage).Methods("GET")
	r.HandleFunc("/predict", s.handlePredictSubmit).Methods("POST")
	r.HandleFunc("/contact", s.handleContact).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/predict", s.handleAPIPredict).Methods("POST")
	api.HandleFunc("/features", s.handleAPIFeatures).Methods("GET")
	api.HandleFunc("/stats", s.handleAPIStats).Methods("GET")
	api.HandleFunc("/outcomes", s.handleAPIOutcomes).Methods("GET")

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/model/info", s.handleModelInfo).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	r.Use(s.logRequests, s.recoverPanics)
	s.router = r

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP requests until Shutdown is called. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting http server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/predict", http.StatusFound)
}

type classification struct {
	label     ml.Label
	latency   time.Duration
	requestID string
}

// classify runs one classification and records its outcome. source names the
// surface the request came through; an empty requestID gets a fresh UUID.
func (s *Server) classify(ctx context.Context, v features.FeatureVector, source, requestID string) (classification, error) {
	if requestID == "" {
		requestID = uuid.New().String()
	}

	start := time.Now()
	label, err := s.classifier.Classify(ctx, v)
	res := classification{label: label, latency: time.Since(start), requestID: requestID}
	if err != nil {
		return res, err
	}

	s.recordOutcome(storage.Outcome{
		Timestamp:    time.Now(),
		Label:        int(label),
		ModelVersion: s.classifier.Metadata().Version,
		Source:       source,
		LatencyMs:    float64(res.latency.Microseconds()) / 1000,
		RequestID:    requestID,
	})
	return res, nil
}

// recordOutcome never fails the request; a store error is logged and counted.
func (s *Server) recordOutcome(o storage.Outcome) {
	if s.opts.Store == nil {
		return
	}
	if o.ModelVersion == "" {
		o.ModelVersion = "unversioned"
	}
	if err := s.opts.Store.StoreOutcome(o); err != nil {
		log.Warn().Err(err).Str("source", o.Source).Msg("failed to store outcome")
		if s.opts.Recorder != nil {
			s.opts.Recorder.StorageErrorInc()
		}
		return
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.OutcomeStoredInc()
	}
}

// waitProgress holds a form response for the configured delay.
func (s *Server) waitProgress(ctx context.Context) error {
	if s.opts.ProgressDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.ProgressDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errorStatus maps a classification error to an HTTP status and a short kind.
func errorStatus(err error) (int, string) {
	var sme *features.ShapeMismatchError
	var iie *features.InvalidInputError
	switch {
	case errors.As(err, &sme):
		return http.StatusBadRequest, "shape_mismatch"
	case errors.As(err, &iie):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
