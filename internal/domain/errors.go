package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCategory is matched by every UnknownCategoryError
	ErrUnknownCategory = errors.New("unknown category")

	// ErrArtifactLoad marks a missing or unreadable model, encoder or dataset
	ErrArtifactLoad = errors.New("artifact load failure")

	// ErrFeatureMismatch is returned when a vector does not have the width a model was trained on
	ErrFeatureMismatch = errors.New("feature count mismatch")
)

// UnknownCategoryError reports a state the encoder was not fit on
type UnknownCategoryError struct {
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Value)
}

// Is lets errors.Is match ErrUnknownCategory
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// ValidationError lists the query fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Fields, ", ")
}
