package ml

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// ArtifactFormat identifies classifier artifacts written by the training pipeline.
	ArtifactFormat = "heart-predictor/classifier"
	// SchemaVersion is the only artifact schema this build can read.
	SchemaVersion = 1
)

// Kind selects the model family implementing an artifact.
type Kind string

const (
	KindDecisionTree       Kind = "decision_tree"
	KindRandomForest       Kind = "random_forest"
	KindLogisticRegression Kind = "logistic_regression"
	KindONNX               Kind = "onnx"
)

// Artifact is the serialized form of a fitted classifier. Exactly the section
// matching Kind must be present.
type Artifact struct {
	Format        string          `json:"format"`
	SchemaVersion int             `json:"schema_version"`
	Kind          Kind            `json:"kind"`
	Version       string          `json:"version"`
	TrainedAt     time.Time       `json:"trained_at,omitempty"`
	Accuracy      float64         `json:"accuracy,omitempty"`
	Features      []string        `json:"features"`
	DecisionTree  *TreeParams     `json:"decision_tree,omitempty"`
	RandomForest  *ForestParams   `json:"random_forest,omitempty"`
	Logistic      *LogisticParams `json:"logistic_regression,omitempty"`
	ONNX          *ONNXParams     `json:"onnx,omitempty"`
}

// ModelMetadata describes the loaded model. It is a copy; changing it does
// not affect the service.
type ModelMetadata struct {
	Version       string    `json:"version"`
	Kind          Kind      `json:"kind"`
	SchemaVersion int       `json:"schema_version"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Accuracy      float64   `json:"accuracy"`
	Path          string    `json:"path"`
	SHA256        string    `json:"sha256"`
	ModifiedAt    time.Time `json:"modified_at"`
	LoadedAt      time.Time `json:"loaded_at"`
}

func (m ModelMetadata) clone() ModelMetadata {
	m.Features = append([]string(nil), m.Features...)
	return m
}

// Age is the time since training, or since the artifact file was last
// modified when the training time is unknown.
func (m ModelMetadata) Age(now time.Time) time.Duration {
	ref := m.TrainedAt
	if ref.IsZero() {
		ref = m.ModifiedAt
	}
	if ref.IsZero() {
		return 0
	}
	return now.Sub(ref)
}

// DecodeArtifact parses and structurally checks an artifact. Model parameters
// are validated later, when the classifier is built.
func DecodeArtifact(data []byte) (*Artifact, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var a Artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode artifact: trailing data after JSON document")
	}

	if a.Format != ArtifactFormat {
		return nil, fmt.Errorf("unexpected format %q, want %q", a.Format, ArtifactFormat)
	}
	if a.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d, this build reads version %d", a.SchemaVersion, SchemaVersion)
	}
	if len(a.Features) == 0 {
		return nil, errors.New("artifact lists no features")
	}
	seen := make(map[string]bool, len(a.Features))
	for i, name := range a.Features {
		if name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true
	}

	sections := 0
	for _, present := range []bool{a.DecisionTree != nil, a.RandomForest != nil, a.Logistic != nil, a.ONNX != nil} {
		if present {
			sections++
		}
	}
	if sections > 1 {
		return nil, errors.New("artifact carries more than one model section")
	}

	return &a, nil
}

func (a *Artifact) metadata(path string, raw []byte) ModelMetadata {
	sum := sha256.Sum256(raw)
	return ModelMetadata{
		Version:       a.Version,
		Kind:          a.Kind,
		SchemaVersion: a.SchemaVersion,
		TrainedAt:     a.TrainedAt,
		Features:      append([]string(nil), a.Features...),
		Accuracy:      a.Accuracy,
		Path:          path,
		SHA256:        hex.EncodeToString(sum[:]),
	}
}

// buildClassifier instantiates the model family named by the artifact.
func (a *Artifact) buildClassifier(dir string) (Classifier, error) {
	n := len(a.Features)
	switch a.Kind {
	case KindDecisionTree:
		if a.DecisionTree == nil {
			return nil, errors.New("missing decision_tree section")
		}
		return newDecisionTree(a.DecisionTree, n)
	case KindRandomForest:
		if a.RandomForest == nil {
			return nil, errors.New("missing random_forest section")
		}
		return newRandomForest(a.RandomForest, n)
	case KindLogisticRegression:
		if a.Logistic == nil {
			return nil, errors.New("missing logistic_regression section")
		}
		return newLogisticRegression(a.Logistic, n)
	case KindONNX:
		if a.ONNX == nil {
			return nil, errors.New("missing onnx section")
		}
		return newONNXClassifier(a.ONNX, dir, n)
	case "":
		return nil, errors.New("artifact has no kind")
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}
