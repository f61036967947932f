// Package metrics provides Prometheus metrics collection for the heart disease
// prediction service. It covers classification outcomes and failures, model
// freshness, HTTP traffic and the optional outcome store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Classification metrics
	Classifications  *prometheus.CounterVec // Successful classifications by label
	ClassifyFailures *prometheus.CounterVec // Rejected or failed classifications by reason
	ClassifyLatency  prometheus.Histogram   // Classify latency in seconds
	ModelAge         prometheus.Gauge       // Seconds since the model was trained
	ModelFeatures    prometheus.Gauge       // Number of model input features

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests by route and status code
	HTTPDuration *prometheus.HistogramVec // Request duration by route

	// Storage metrics
	OutcomesStored prometheus.Counter // Outcomes written to the store
	StorageErrors  prometheus.Counter // Failed store writes
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heart_classifications_total",
			Help: "Total number of successful classifications by label",
		}, []string{"label"}),
		ClassifyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heart_classify_failures_total",
			Help: "Total number of rejected or failed classifications by reason",
		}, []string{"reason"}),
		ClassifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "heart_classify_latency_seconds",
			Help:    "Classification latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heart_model_age_seconds",
			Help: "Age of the loaded model in seconds",
		}),
		ModelFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heart_model_features",
			Help: "Number of input features the loaded model expects",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heart_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "heart_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		OutcomesStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "heart_outcomes_stored_total",
			Help: "Total number of classification outcomes written to storage",
		}),
		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "heart_storage_errors_total",
			Help: "Total number of failed storage writes",
		}),
	}
}
