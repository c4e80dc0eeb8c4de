// Package features assembles the numeric input of the price model.
package features

import (
	"fmt"

	"github.com/gasolina/backend/internal/domain"
)

// OneHotEncoder encodes a state over a fixed category ordering and appends
// the numeric year and month. It is read-only after construction.
type OneHotEncoder struct {
	categories []string
	index      map[string]int
}

// NewOneHotEncoder creates an encoder over the given ordered category set
func NewOneHotEncoder(categories []string) (*OneHotEncoder, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("features: empty category set")
	}

	index := make(map[string]int, len(categories))
	for i, c := range categories {
		if c == "" {
			return nil, fmt.Errorf("features: empty category at position %d", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("features: duplicate category %q", c)
		}
		index[c] = i
	}

	cats := make([]string, len(categories))
	copy(cats, categories)

	return &OneHotEncoder{categories: cats, index: index}, nil
}

// Categories returns a copy of the category ordering
func (e *OneHotEncoder) Categories() []string {
	out := make([]string, len(e.categories))
	copy(out, e.categories)
	return out
}

// Width is the length of every encoded vector
func (e *OneHotEncoder) Width() int {
	return len(e.categories) + 2
}

// Transform returns the one-hot block for state
func (e *OneHotEncoder) Transform(state string) ([]float64, error) {
	i, ok := e.index[state]
	if !ok {
		return nil, &domain.UnknownCategoryError{Value: state}
	}
	block := make([]float64, len(e.categories))
	block[i] = 1
	return block, nil
}

// Encode returns [one-hot(state)..., year, month]. Year and month are copied
// as-is; range checks belong to the caller.
func (e *OneHotEncoder) Encode(state string, year, month int) (domain.FeatureVector, error) {
	block, err := e.Transform(state)
	if err != nil {
		return nil, err
	}
	return append(block, float64(year), float64(month)), nil
}
