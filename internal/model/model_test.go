package model

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeArtifact(t, `{
		"version": "1.2.0",
		"feature_names": ["velocity_24h"],
		"weights": [0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8],
		"intercept": -1.5
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Version() != "1.2.0" {
		t.Errorf("Version = %q", m.Version())
	}
	if !m.Loaded() {
		t.Error("Loaded() = false")
	}
	names := m.ExtensionNames()
	if len(names) != 1 || names[0] != "velocity_24h" {
		t.Errorf("ExtensionNames = %v", names)
	}
}

func TestLoad_WeightCountMismatch(t *testing.T) {
	path := writeArtifact(t, `{
		"version": "1.0.0",
		"feature_names": [],
		"weights": [0.1, 0.2],
		"intercept": 0
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for wrong weight count")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := writeArtifact(t, `{broken`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed artifact")
	}
}

func TestLogistic_Score(t *testing.T) {
	m := &Logistic{
		weights:   []float64{1, 0, 0, 0, 0, 0, 0},
		intercept: 0,
	}

	// z = 0 -> sigmoid = 0.5
	score, err := m.Score(context.Background(), []float64{0, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(score-0.5) > 1e-9 {
		t.Errorf("sigmoid(0) = %v, want 0.5", score)
	}

	// Large positive z saturates near 1
	score, err = m.Score(context.Background(), []float64{100, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score < 0.999 {
		t.Errorf("sigmoid(100) = %v, want near 1", score)
	}
}

func TestLogistic_VectorWidthMismatch(t *testing.T) {
	m := &Logistic{weights: []float64{1, 1, 1, 1, 1, 1, 1}}
	if _, err := m.Score(context.Background(), []float64{1, 2}); err == nil {
		t.Fatal("expected error for short feature vector")
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{}
	if u.Loaded() {
		t.Error("Loaded() = true")
	}
	_, err := u.Score(context.Background(), nil)
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
}

func TestStub(t *testing.T) {
	s := NewStub(0.42)
	score, err := s.Score(context.Background(), []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score != 0.42 {
		t.Errorf("score = %v, want 0.42", score)
	}
	if !s.Loaded() {
		t.Error("Loaded() = false")
	}
}
