package model

import "context"

// Stub is a fixed-score classifier for development and tests. In
// production the real artifact is loaded instead; the stub keeps the rest
// of the pipeline exercisable without one.
type Stub struct {
	Fixed float64
}

// NewStub creates a stub classifier that always returns score.
func NewStub(score float64) *Stub {
	return &Stub{Fixed: score}
}

func (s *Stub) Score(ctx context.Context, features []float64) (float64, error) {
	return s.Fixed, nil
}

func (s *Stub) ExtensionNames() []string { return nil }

func (s *Stub) Loaded() bool { return true }

func (s *Stub) Version() string { return "stub" }
