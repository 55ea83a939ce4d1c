package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/fraudlens/fraudlens/internal/risk"
)

// Artifact is the serialized form of a trained logistic model. The weights
// cover the seven base feature slots followed by one weight per declared
// extension feature name, in declared order.
type Artifact struct {
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
}

// Logistic scores feature vectors with a logistic regression model.
type Logistic struct {
	version   string
	extNames  []string
	weights   []float64
	intercept float64
}

// Load reads a model artifact from disk and validates its shape.
func Load(path string) (*Logistic, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	want := risk.NumBaseFeatures + len(art.FeatureNames)
	if len(art.Weights) != want {
		return nil, fmt.Errorf("model artifact has %d weights, expected %d (%d base + %d extension)",
			len(art.Weights), want, risk.NumBaseFeatures, len(art.FeatureNames))
	}

	return &Logistic{
		version:   art.Version,
		extNames:  art.FeatureNames,
		weights:   art.Weights,
		intercept: art.Intercept,
	}, nil
}

// Score returns sigmoid(w·x + b) for the encoded feature vector.
func (m *Logistic) Score(ctx context.Context, features []float64) (float64, error) {
	if len(features) != len(m.weights) {
		return 0, fmt.Errorf("feature vector has %d slots, model expects %d", len(features), len(m.weights))
	}
	z := m.intercept
	for i, w := range m.weights {
		z += w * features[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// ExtensionNames lists the model's declared extension features in input order.
func (m *Logistic) ExtensionNames() []string { return m.extNames }

// Loaded reports that a usable model is present.
func (m *Logistic) Loaded() bool { return true }

// Version returns the artifact version string, or "unknown" when absent.
func (m *Logistic) Version() string {
	if m.version == "" {
		return "unknown"
	}
	return m.version
}
