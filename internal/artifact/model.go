package artifact

import (
	"fmt"

	"github.com/gasolina/backend/internal/domain"
)

// Model kinds understood by LoadModel
const (
	KindLinear = "linear"
	KindForest = "forest"
)

// LinearModel predicts intercept + coefficients·x
type LinearModel struct {
	Coefficients []float64
	Intercept    float64
}

// Predict implements domain.Regressor
func (m *LinearModel) Predict(x domain.FeatureVector) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrFeatureMismatch, len(x), len(m.Coefficients))
	}
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * x[i]
	}
	return y, nil
}

// NumFeatures implements domain.Regressor
func (m *LinearModel) NumFeatures() int { return len(m.Coefficients) }

// Kind implements domain.Regressor
func (m *LinearModel) Kind() string { return KindLinear }

// Node is one node of a regression tree. Left == -1 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat array of nodes rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x domain.FeatureVector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == -1 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate ensures every walk from the root terminates inside the array
func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left == -1 {
			if n.Right != -1 {
				return fmt.Errorf("node %d: leaf with right child %d", i, n.Right)
			}
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: children (%d, %d) out of order", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
	}
	return nil
}

// ForestModel averages the output of its trees
type ForestModel struct {
	Trees     []Tree
	nFeatures int
}

// NewForestModel validates trees against nFeatures
func NewForestModel(trees []Tree, nFeatures int) (*ForestModel, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("forest: n_features must be positive")
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest: no trees")
	}
	for i, t := range trees {
		if err := t.validate(nFeatures); err != nil {
			return nil, fmt.Errorf("forest: tree %d: %w", i, err)
		}
	}
	return &ForestModel{Trees: trees, nFeatures: nFeatures}, nil
}

// Predict implements domain.Regressor
func (m *ForestModel) Predict(x domain.FeatureVector) (float64, error) {
	if len(x) != m.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrFeatureMismatch, len(x), m.nFeatures)
	}
	var sum float64
	for _, t := range m.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(m.Trees)), nil
}

// NumFeatures implements domain.Regressor
func (m *ForestModel) NumFeatures() int { return m.nFeatures }

// Kind implements domain.Regressor
func (m *ForestModel) Kind() string { return KindForest }
