package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionTreePredict(t *testing.T) {
	tree, err := newDecisionTree(&TreeParams{Nodes: stumpNodes(1, 10)}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.NumFeatures())

	labels, err := tree.Predict([][]float64{{0, 9.5}, {0, 10}, {0, 10.01}, {99, -3}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 0}, labels)
}

func TestDecisionTreeSingleLeaf(t *testing.T) {
	tree, err := newDecisionTree(&TreeParams{Nodes: []TreeNode{{IsLeaf: true, ClassLabel: 1}}}, 3)
	require.NoError(t, err)

	labels, err := tree.Predict([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, labels)
}

func TestDecisionTreeShapeCheck(t *testing.T) {
	tree, err := newDecisionTree(&TreeParams{Nodes: stumpNodes(0, 0.5)}, 2)
	require.NoError(t, err)

	_, err = tree.Predict([][]float64{{1}})
	assert.EqualError(t, err, "expected 2 features, got 1")
}

func TestDecisionTreeValidation(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []TreeNode
		wantErr string
	}{
		{
			name:    "empty",
			nodes:   nil,
			wantErr: "has no nodes",
		},
		{
			name:    "leaf label out of domain",
			nodes:   []TreeNode{{IsLeaf: true, ClassLabel: 2}},
			wantErr: "leaf label 2 is not 0 or 1",
		},
		{
			name: "feature index out of range",
			nodes: []TreeNode{
				{FeatureIdx: 5, LeftChild: 1, RightChild: 2},
				{IsLeaf: true}, {IsLeaf: true},
			},
			wantErr: "feature index 5 out of range",
		},
		{
			name: "non-finite threshold",
			nodes: []TreeNode{
				{Threshold: math.NaN(), LeftChild: 1, RightChild: 2},
				{IsLeaf: true}, {IsLeaf: true},
			},
			wantErr: "threshold is not finite",
		},
		{
			name: "cycle back to root",
			nodes: []TreeNode{
				{LeftChild: 1, RightChild: 2},
				{LeftChild: 0, RightChild: 2},
				{IsLeaf: true},
			},
			wantErr: "node 1: child index 0",
		},
		{
			name: "self reference",
			nodes: []TreeNode{
				{LeftChild: 0, RightChild: 1},
				{IsLeaf: true},
			},
			wantErr: "node 0: child index 0",
		},
		{
			name: "dangling child",
			nodes: []TreeNode{
				{LeftChild: 1, RightChild: 7},
				{IsLeaf: true},
			},
			wantErr: "child index 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDecisionTree(&TreeParams{Nodes: tt.nodes}, 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRandomForestVote(t *testing.T) {
	positive := TreeParams{Nodes: []TreeNode{{IsLeaf: true, ClassLabel: 1}}}
	negative := TreeParams{Nodes: []TreeNode{{IsLeaf: true, ClassLabel: 0}}}
	split := TreeParams{Nodes: stumpNodes(0, 0.5)}

	tests := []struct {
		name  string
		trees []TreeParams
		row   []float64
		want  int
	}{
		{"unanimous positive", []TreeParams{positive, positive, positive}, []float64{0, 0}, 1},
		{"majority negative", []TreeParams{positive, negative, negative}, []float64{0, 0}, 0},
		{"split tree decides", []TreeParams{positive, negative, split}, []float64{1, 0}, 1},
		{"split tree decides negative", []TreeParams{positive, negative, split}, []float64{0, 0}, 0},
		{"tie goes negative", []TreeParams{positive, negative}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forest, err := newRandomForest(&ForestParams{Trees: tt.trees}, 2)
			require.NoError(t, err)

			labels, err := forest.Predict([][]float64{tt.row})
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, labels)
		})
	}
}

func TestRandomForestValidation(t *testing.T) {
	_, err := newRandomForest(&ForestParams{}, 2)
	assert.ErrorContains(t, err, "has no trees")

	bad := TreeParams{Nodes: []TreeNode{{IsLeaf: true, ClassLabel: -1}}}
	_, err = newRandomForest(&ForestParams{Trees: []TreeParams{{Nodes: stumpNodes(0, 1)}, bad}}, 2)
	assert.ErrorContains(t, err, "tree 1: node 0")
}
