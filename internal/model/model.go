// Package model loads and serves the trained fraud classifier.
//
// The classifier is an opaque collaborator from the pipeline's point of
// view: it is loaded once at process startup from a JSON artifact and is
// read-only afterwards, so concurrent scoring needs no locking. A load
// failure never crashes the process; the service degrades to a permanent
// unavailable state instead.
package model

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by a classifier that has no usable model behind
// it. Adapters translate it into a service-unavailable condition.
var ErrNotLoaded = errors.New("model not loaded")

// Unavailable is the permanent degraded classifier used when the model
// artifact could not be loaded at startup.
type Unavailable struct{}

func (Unavailable) Score(ctx context.Context, features []float64) (float64, error) {
	return 0, ErrNotLoaded
}

func (Unavailable) ExtensionNames() []string { return nil }

func (Unavailable) Loaded() bool { return false }

func (Unavailable) Version() string { return "" }
