package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    map[string]int
	latencies   int
	modelAge    float64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions: make(map[string]int),
		failures:    make(map[string]int),
	}
}

func (m *MockMetrics) MLPredictionsInc(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[label]++
}

func (m *MockMetrics) MLFailuresInc(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[reason]++
}

func (m *MockMetrics) MLLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) Predictions(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[label]
}

func (m *MockMetrics) Failures(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[reason]
}

func (m *MockMetrics) Latencies() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latencies
}

func (m *MockMetrics) ModelAge() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelAge
}

// stumpArtifact is a one-split tree over two features: x0 <= 0.5 is negative.
func stumpArtifact() Artifact {
	return Artifact{
		Format:        ArtifactFormat,
		SchemaVersion: SchemaVersion,
		Kind:          KindDecisionTree,
		Version:       "stump-1",
		Features:      []string{"x0", "x1"},
		DecisionTree:  &TreeParams{Nodes: stumpNodes(0, 0.5)},
	}
}

func stumpNodes(feature int, threshold float64) []TreeNode {
	return []TreeNode{
		{FeatureIdx: feature, Threshold: threshold, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: 0},
		{IsLeaf: true, ClassLabel: 1},
	}
}

func writeArtifact(t *testing.T, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	return writeRaw(t, data)
}

func writeRaw(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// writeArtifactIn writes model.json into dir, next to any files it references.
func writeArtifactIn(t *testing.T, dir string, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
