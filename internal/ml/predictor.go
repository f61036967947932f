package ml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"heart-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the service
type MetricsInterface interface {
	MLPredictionsInc(label string)
	MLFailuresInc(reason string)
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
}

// Failure reasons reported to MetricsInterface.MLFailuresInc.
const (
	ReasonShapeMismatch = "shape_mismatch"
	ReasonInvalidInput  = "invalid_input"
	ReasonCanceled      = "canceled"
	ReasonModelError    = "model_error"
)

// Service is the classifier handle: one loaded model shared read-only by all
// requests. Nothing in it changes after construction, so Classify is safe for
// concurrent use as long as the Classifier is.
type Service struct {
	classifier Classifier
	metadata   ModelMetadata
	specs      []features.FeatureSpec
	metrics    MetricsInterface
}

type options struct {
	metrics MetricsInterface
	specs   []features.FeatureSpec
}

// Option configures Load and New.
type Option func(*options)

// WithMetrics reports classification metrics to m.
func WithMetrics(m MetricsInterface) Option {
	return func(o *options) { o.metrics = m }
}

// WithFeatureSpecs attaches the legal input domain. Names and order must match
// the model's features exactly; Classify then rejects out-of-range values.
func WithFeatureSpecs(specs []features.FeatureSpec) Option {
	return func(o *options) {
		o.specs = append([]features.FeatureSpec(nil), specs...)
	}
}

// Load reads the artifact at path and builds the classifier it describes.
// Any failure is a *ModelLoadError and no service is returned.
func Load(path string, opts ...Option) (*Service, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, loadErrorf(path, err, "artifact not accessible")
	}
	if info.IsDir() {
		return nil, loadErrorf(path, nil, "artifact path is a directory")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErrorf(path, err, "cannot read artifact")
	}

	artifact, err := DecodeArtifact(raw)
	if err != nil {
		return nil, loadErrorf(path, err, "corrupt or incompatible artifact")
	}

	classifier, err := artifact.buildClassifier(filepath.Dir(path))
	if err != nil {
		return nil, loadErrorf(path, err, "invalid %s model", artifact.Kind)
	}

	md := artifact.metadata(path, raw)
	md.ModifiedAt = info.ModTime()

	svc, err := New(classifier, md, opts...)
	if err != nil {
		closeClassifier(classifier)
		return nil, err
	}

	log.Info().
		Str("model_path", path).
		Str("kind", string(md.Kind)).
		Str("version", md.Version).
		Int("features", len(md.Features)).
		Str("sha256", md.SHA256).
		Msg("classifier loaded")

	return svc, nil
}

// New wraps an already constructed classifier. md.Features must name one
// feature per classifier input.
func New(c Classifier, md ModelMetadata, opts ...Option) (*Service, error) {
	if c == nil {
		return nil, loadErrorf("", nil, "nil classifier")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	md = md.clone()
	if md.LoadedAt.IsZero() {
		md.LoadedAt = time.Now()
	}
	if len(md.Features) != c.NumFeatures() {
		return nil, loadErrorf(md.Path, nil, "model declares %d features but takes %d inputs", len(md.Features), c.NumFeatures())
	}

	if o.specs != nil {
		if len(o.specs) != len(md.Features) {
			return nil, loadErrorf(md.Path, nil, "reference dataset has %d features, model has %d", len(o.specs), len(md.Features))
		}
		for i, spec := range o.specs {
			if spec.Name != md.Features[i] {
				return nil, loadErrorf(md.Path, nil, "feature order mismatch at position %d: dataset %q, model %q", i, spec.Name, md.Features[i])
			}
			if spec.Min > spec.Max {
				return nil, loadErrorf(md.Path, nil, "feature %q has min %v > max %v", spec.Name, spec.Min, spec.Max)
			}
		}
	}

	s := &Service{
		classifier: c,
		metadata:   md,
		specs:      o.specs,
		metrics:    o.metrics,
	}

	if s.metrics != nil {
		s.metrics.MLModelAgeSet(md.Age(time.Now()).Seconds())
	}

	return s, nil
}

// Classify returns the label for one feature vector. The vector must have one
// finite value per model feature; when feature specs are attached every value
// must also be inside its range. The result is a pure function of the vector.
func (s *Service) Classify(ctx context.Context, v features.FeatureVector) (Label, error) {
	if s == nil {
		return Negative, fmt.Errorf("classifier service is nil")
	}

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if err := ctx.Err(); err != nil {
		s.fail(ReasonCanceled)
		return Negative, err
	}

	if err := s.validate(v); err != nil {
		var sme *features.ShapeMismatchError
		if errors.As(err, &sme) {
			s.fail(ReasonShapeMismatch)
		} else {
			s.fail(ReasonInvalidInput)
		}
		return Negative, err
	}

	labels, err := s.classifier.Predict([][]float64{v.Clone()})
	if err != nil {
		s.fail(ReasonModelError)
		log.Error().Err(err).Str("version", s.metadata.Version).Msg("classifier prediction failed")
		return Negative, fmt.Errorf("classify: %w", err)
	}
	if len(labels) != 1 {
		s.fail(ReasonModelError)
		return Negative, fmt.Errorf("classify: classifier returned %d labels for 1 row", len(labels))
	}

	label := Label(labels[0])
	if !label.Valid() {
		s.fail(ReasonModelError)
		return Negative, fmt.Errorf("classify: classifier returned label %d, want 0 or 1", labels[0])
	}

	if s.metrics != nil {
		s.metrics.MLPredictionsInc(label.String())
	}

	log.Debug().
		Int("label", int(label)).
		Str("version", s.metadata.Version).
		Dur("latency", time.Since(start)).
		Msg("classification complete")

	return label, nil
}

func (s *Service) validate(v features.FeatureVector) error {
	if s.specs != nil {
		return features.Validate(s.specs, v)
	}
	if err := features.CheckShape(v, s.classifier.NumFeatures()); err != nil {
		return err
	}
	if err := features.CheckFinite(v); err != nil {
		var iie *features.InvalidInputError
		if errors.As(err, &iie) && iie.Index < len(s.metadata.Features) {
			iie.Name = s.metadata.Features[iie.Index]
		}
		return err
	}
	return nil
}

func (s *Service) fail(reason string) {
	if s.metrics != nil {
		s.metrics.MLFailuresInc(reason)
	}
}

// NumFeatures is the vector length Classify expects.
func (s *Service) NumFeatures() int {
	return s.classifier.NumFeatures()
}

// Features returns the attached feature specs, or specs with unbounded ranges
// built from the model's feature names when none were attached.
func (s *Service) Features() []features.FeatureSpec {
	if s.specs != nil {
		return append([]features.FeatureSpec(nil), s.specs...)
	}
	out := make([]features.FeatureSpec, len(s.metadata.Features))
	for i, name := range s.metadata.Features {
		out[i] = features.FeatureSpec{Name: name, Min: -math.MaxFloat64, Max: math.MaxFloat64}
	}
	return out
}

// HasRanges reports whether reference ranges are enforced.
func (s *Service) HasRanges() bool {
	return s.specs != nil
}

// Metadata returns a copy of the model metadata.
func (s *Service) Metadata() ModelMetadata {
	return s.metadata.clone()
}

// Close releases native resources held by the classifier, if any.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	return closeClassifier(s.classifier)
}

func closeClassifier(c Classifier) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
