package risk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

type fakeClassifier struct {
	score    float64
	err      error
	extNames []string
	loaded   bool

	// captured input from the last Score call
	gotVector []float64
}

func (f *fakeClassifier) Score(ctx context.Context, features []float64) (float64, error) {
	f.gotVector = features
	return f.score, f.err
}

func (f *fakeClassifier) ExtensionNames() []string { return f.extNames }
func (f *fakeClassifier) Loaded() bool             { return f.loaded }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Score(t *testing.T) {
	fc := &fakeClassifier{score: 0.82, loaded: true}
	svc := NewService(fc, testLogger())

	a, err := svc.Score(context.Background(), baseTx())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if a.Score != 0.82 {
		t.Errorf("Score = %v, want 0.82", a.Score)
	}
	if a.Level != LevelHigh {
		t.Errorf("Level = %s, want HIGH", a.Level)
	}
	if a.TransactionID != "tx-1" {
		t.Errorf("TransactionID = %q", a.TransactionID)
	}
	if len(fc.gotVector) != NumBaseFeatures {
		t.Errorf("classifier received %d slots, want %d", len(fc.gotVector), NumBaseFeatures)
	}
}

func TestService_ScoreIdempotent(t *testing.T) {
	svc := NewService(&fakeClassifier{score: 0.55, loaded: true}, testLogger())

	a1, err := svc.Score(context.Background(), baseTx())
	if err != nil {
		t.Fatalf("first Score: %v", err)
	}
	a2, err := svc.Score(context.Background(), baseTx())
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Errorf("assessments differ: %+v vs %+v", a1, a2)
	}
}

func TestService_ClassifierErrorPropagates(t *testing.T) {
	sentinel := errors.New("backend gone")
	svc := NewService(&fakeClassifier{err: sentinel}, testLogger())

	_, err := svc.Score(context.Background(), baseTx())
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
}

func TestService_ValidationErrorBeforeClassifier(t *testing.T) {
	fc := &fakeClassifier{score: 0.5, loaded: true}
	svc := NewService(fc, testLogger())

	tx := baseTx()
	tx.TransactionTime = "garbage"
	_, err := svc.Score(context.Background(), tx)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if fc.gotVector != nil {
		t.Error("classifier must not be called for an invalid transaction")
	}
}

func TestService_ExtensionVectorWidth(t *testing.T) {
	fc := &fakeClassifier{score: 0.1, loaded: true, extNames: []string{"velocity_24h", "merchant_risk"}}
	svc := NewService(fc, testLogger())

	if _, err := svc.Score(context.Background(), baseTx()); err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(fc.gotVector) != NumBaseFeatures+2 {
		t.Errorf("classifier received %d slots, want %d", len(fc.gotVector), NumBaseFeatures+2)
	}
}

func TestService_ScoreClamped(t *testing.T) {
	svc := NewService(&fakeClassifier{score: 1.7, loaded: true}, testLogger())

	a, err := svc.Score(context.Background(), baseTx())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if a.Score != 1 {
		t.Errorf("Score = %v, want clamped to 1", a.Score)
	}
}

func TestService_Ready(t *testing.T) {
	if NewService(&fakeClassifier{loaded: true}, testLogger()).Ready() != true {
		t.Error("Ready() = false for a loaded classifier")
	}
	if NewService(&fakeClassifier{}, testLogger()).Ready() != false {
		t.Error("Ready() = true for an unloaded classifier")
	}
}
