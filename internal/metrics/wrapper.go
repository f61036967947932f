package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces of the ml and web
// packages.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc(label string) {
	w.m.Classifications.WithLabelValues(label).Inc()
}

func (w *MetricsWrapper) MLFailuresInc(reason string) {
	w.m.ClassifyFailures.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.ClassifyLatency.Observe(seconds)
}

func (w *MetricsWrapper) MLModelAgeSet(seconds float64) {
	w.m.ModelAge.Set(seconds)
}

func (w *MetricsWrapper) ModelFeaturesSet(n int) {
	w.m.ModelFeatures.Set(float64(n))
}

func (w *MetricsWrapper) HTTPRequestObserve(route string, code int, d time.Duration) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (w *MetricsWrapper) OutcomeStoredInc() {
	w.m.OutcomesStored.Inc()
}

func (w *MetricsWrapper) StorageErrorInc() {
	w.m.StorageErrors.Inc()
}
