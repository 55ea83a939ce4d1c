package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		level        string
		debugEnabled bool
		infoEnabled  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"", false, true}, // unknown defaults to info
	}

	for _, tc := range cases {
		logger := New(tc.level, "text")
		if logger == nil {
			t.Fatalf("%q: nil logger", tc.level)
		}
		if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tc.debugEnabled {
			t.Errorf("%q: debug enabled = %v, want %v", tc.level, got, tc.debugEnabled)
		}
		if got := logger.Enabled(context.Background(), slog.LevelInfo); got != tc.infoEnabled {
			t.Errorf("%q: info enabled = %v, want %v", tc.level, got, tc.infoEnabled)
		}
	}
}

func TestNew_Formats(t *testing.T) {
	if New("info", "json") == nil {
		t.Fatal("nil logger for json format")
	}
	if New("info", "text") == nil {
		t.Fatal("nil logger for text format")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if id := RequestID(ctx); id != "" {
		t.Errorf("fresh context carries request ID %q", id)
	}

	ctx = WithRequestID(ctx, "req_abc")
	if id := RequestID(ctx); id != "req_abc" {
		t.Errorf("RequestID = %q, want req_abc", id)
	}

	ctx = WithRequestID(ctx, "req_def")
	if id := RequestID(ctx); id != "req_def" {
		t.Errorf("latest request ID wins: got %q", id)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := context.Background()

	if FromContext(ctx) == nil {
		t.Fatal("expected the default logger for a bare context")
	}

	custom := New("debug", "json")
	ctx = WithLogger(ctx, custom)
	if FromContext(ctx) != custom {
		t.Error("expected the injected logger back")
	}
}

func TestL(t *testing.T) {
	ctx := WithLogger(context.Background(), New("info", "text"))

	if L(ctx) == nil {
		t.Fatal("L returned nil without a request ID")
	}

	ctx = WithRequestID(ctx, "req_xyz")
	if L(ctx) == nil {
		t.Fatal("L returned nil with a request ID")
	}
}
