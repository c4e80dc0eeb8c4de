package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasolina/backend/internal/domain"
)

var testStates = []string{"CDMX", "Jalisco", "Nuevo Leon"}

func TestEncodeExample(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	vec, err := enc.Encode("Jalisco", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureVector{0, 1, 0, 2024, 6}, vec)
}

func TestEncodeOneHotPosition(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	for i, s := range testStates {
		t.Run(s, func(t *testing.T) {
			vec, err := enc.Encode(s, 2019, 11)
			require.NoError(t, err)
			require.Len(t, vec, len(testStates)+2)

			ones := 0
			for j, v := range vec[:len(testStates)] {
				if j == i {
					assert.Equal(t, 1.0, v)
				} else {
					assert.Equal(t, 0.0, v)
				}
				if v == 1 {
					ones++
				}
			}
			assert.Equal(t, 1, ones)
			assert.Equal(t, 2019.0, vec[len(vec)-2])
			assert.Equal(t, 11.0, vec[len(vec)-1])
		})
	}
}

func TestEncodeUnknownState(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	vec, err := enc.Encode("not-a-real-state", 2024, 6)
	assert.Nil(t, vec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))

	var uc *domain.UnknownCategoryError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "not-a-real-state", uc.Value)
}

func TestEncodeDoesNotValidateRanges(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	vec, err := enc.Encode("CDMX", 1999, 13)
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureVector{1, 0, 0, 1999, 13}, vec)
}

func TestEncodeDeterministic(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	a, err := enc.Encode("Nuevo Leon", 2030, 1)
	require.NoError(t, err)
	b, err := enc.Encode("Nuevo Leon", 2030, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// vectors must not share backing storage
	a[0] = 42
	assert.Equal(t, 0.0, b[0])
}

func TestWidth(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)
	assert.Equal(t, 5, enc.Width())
}

func TestCategoriesIsCopy(t *testing.T) {
	enc, err := NewOneHotEncoder(testStates)
	require.NoError(t, err)

	cats := enc.Categories()
	cats[0] = "changed"
	assert.Equal(t, testStates, enc.Categories())
}

func TestNewOneHotEncoderRejectsBadSets(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
	}{
		{name: "empty", categories: nil},
		{name: "blank name", categories: []string{"CDMX", ""}},
		{name: "duplicate", categories: []string{"CDMX", "Jalisco", "CDMX"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOneHotEncoder(tt.categories)
			assert.Error(t, err)
		})
	}
}
