package ml

import (
	"errors"
	"fmt"
	"math"

	"heart-predictor/internal/features"
)

// TreeNode is one node of a flattened binary decision tree. Rows whose value
// for FeatureIdx is <= Threshold go to LeftChild.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// TreeParams holds a tree as a node array rooted at index 0.
type TreeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// ForestParams holds the trees of a hard-voting ensemble.
type ForestParams struct {
	Trees []TreeParams `json:"trees"`
}

type decisionTree struct {
	nodes       []TreeNode
	numFeatures int
}

// newDecisionTree validates the node array. Children must sit at a higher
// index than their parent, which rules out cycles and bounds every walk.
func newDecisionTree(p *TreeParams, numFeatures int) (*decisionTree, error) {
	if len(p.Nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	for i, node := range p.Nodes {
		if node.IsLeaf {
			if !Label(node.ClassLabel).Valid() {
				return nil, fmt.Errorf("node %d: leaf label %d is not 0 or 1", i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return nil, fmt.Errorf("node %d: feature index %d out of range [0, %d)", i, node.FeatureIdx, numFeatures)
		}
		if math.IsNaN(node.Threshold) || math.IsInf(node.Threshold, 0) {
			return nil, fmt.Errorf("node %d: threshold is not finite", i)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(p.Nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range (%d, %d)", i, child, i, len(p.Nodes))
			}
		}
	}

	nodes := make([]TreeNode, len(p.Nodes))
	copy(nodes, p.Nodes)
	return &decisionTree{nodes: nodes, numFeatures: numFeatures}, nil
}

func (dt *decisionTree) NumFeatures() int { return dt.numFeatures }

func (dt *decisionTree) Predict(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for r, row := range rows {
		if err := features.CheckShape(row, dt.numFeatures); err != nil {
			return nil, err
		}
		out[r] = dt.predictRow(row)
	}
	return out, nil
}

func (dt *decisionTree) predictRow(row []float64) int {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

type randomForest struct {
	trees       []*decisionTree
	numFeatures int
}

func newRandomForest(p *ForestParams, numFeatures int) (*randomForest, error) {
	if len(p.Trees) == 0 {
		return nil, errors.New("random forest has no trees")
	}
	trees := make([]*decisionTree, len(p.Trees))
	for i := range p.Trees {
		tree, err := newDecisionTree(&p.Trees[i], numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}
	return &randomForest{trees: trees, numFeatures: numFeatures}, nil
}

func (rf *randomForest) NumFeatures() int { return rf.numFeatures }

// Predict takes a majority vote over the trees; a tie yields the negative class.
func (rf *randomForest) Predict(rows [][]float64) ([]int, error) {
	out := make([]int, len(rows))
	for r, row := range rows {
		if err := features.CheckShape(row, rf.numFeatures); err != nil {
			return nil, err
		}
		positive := 0
		for _, tree := range rf.trees {
			positive += tree.predictRow(row)
		}
		if 2*positive > len(rf.trees) {
			out[r] = int(Positive)
		} else {
			out[r] = int(Negative)
		}
	}
	return out, nil
}
