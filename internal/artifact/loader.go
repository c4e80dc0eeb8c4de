// Package artifact loads the fitted encoder, the regression model and the
// optional tidy dataset from disk.
package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/internal/features"
)

// DefaultStateColumn is the dataset column holding state names
const DefaultStateColumn = "estado"

// Paths locates the artifacts on disk. DatasetPath is optional.
type Paths struct {
	ModelPath     string
	EncoderPath   string
	DatasetPath   string
	DatasetColumn string
}

// Bundle holds everything loaded at startup. It is never mutated afterwards.
type Bundle struct {
	Encoder *features.OneHotEncoder
	Model   domain.Regressor
	// States read from the dataset, nil when no dataset was configured
	States []string
}

type encoderDocument struct {
	Categories [][]string `json:"categories"`
}

type modelDocument struct {
	Kind         string    `json:"kind"`
	NFeatures    int       `json:"n_features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Trees        []Tree    `json:"trees"`
}

// Load reads every configured artifact and checks that the model accepts
// vectors of the encoder's width.
func Load(p Paths) (*Bundle, error) {
	enc, err := LoadEncoder(p.EncoderPath)
	if err != nil {
		return nil, err
	}

	model, err := LoadModel(p.ModelPath)
	if err != nil {
		return nil, err
	}

	if model.NumFeatures() != enc.Width() {
		return nil, fmt.Errorf("%w: model expects %d features, encoder produces %d: %w",
			domain.ErrArtifactLoad, model.NumFeatures(), enc.Width(), domain.ErrFeatureMismatch)
	}

	b := &Bundle{Encoder: enc, Model: model}

	if p.DatasetPath != "" {
		column := p.DatasetColumn
		if column == "" {
			column = DefaultStateColumn
		}
		states, err := LoadStates(p.DatasetPath, column)
		if err != nil {
			return nil, err
		}
		b.States = states
	}

	return b, nil
}

// LoadEncoder reads an encoder document with a single categorical column
func LoadEncoder(path string) (*features.OneHotEncoder, error) {
	var doc encoderDocument
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	if len(doc.Categories) != 1 {
		return nil, fmt.Errorf("%w: encoder %s: expected 1 categorical column, got %d",
			domain.ErrArtifactLoad, path, len(doc.Categories))
	}

	enc, err := features.NewOneHotEncoder(doc.Categories[0])
	if err != nil {
		return nil, fmt.Errorf("%w: encoder %s: %w", domain.ErrArtifactLoad, path, err)
	}
	return enc, nil
}

// LoadModel reads a linear or forest model document
func LoadModel(path string) (domain.Regressor, error) {
	var doc modelDocument
	if err := readDocument(path, &doc); err != nil {
		return nil, err
	}

	switch doc.Kind {
	case KindLinear:
		if len(doc.Coefficients) == 0 {
			return nil, fmt.Errorf("%w: model %s: no coefficients", domain.ErrArtifactLoad, path)
		}
		if doc.NFeatures != 0 && doc.NFeatures != len(doc.Coefficients) {
			return nil, fmt.Errorf("%w: model %s: n_features %d but %d coefficients",
				domain.ErrArtifactLoad, path, doc.NFeatures, len(doc.Coefficients))
		}
		return &LinearModel{Coefficients: doc.Coefficients, Intercept: doc.Intercept}, nil

	case KindForest:
		m, err := NewForestModel(doc.Trees, doc.NFeatures)
		if err != nil {
			return nil, fmt.Errorf("%w: model %s: %w", domain.ErrArtifactLoad, path, err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("%w: model %s: unsupported kind %q", domain.ErrArtifactLoad, path, doc.Kind)
	}
}

// LoadStates returns the distinct, sorted values of column in a CSV dataset
func LoadStates(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset: %w", domain.ErrArtifactLoad, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: read header: %w", domain.ErrArtifactLoad, path, err)
	}

	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: dataset %s: column %q not found", domain.ErrArtifactLoad, path, column)
	}

	seen := make(map[string]struct{})
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %s: %w", domain.ErrArtifactLoad, path, err)
		}
		if col >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[col]); v != "" {
			seen[v] = struct{}{}
		}
	}

	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states, nil
}

func readDocument(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrArtifactLoad, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrArtifactLoad, path, err)
	}
	return nil
}
