package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestRequestLoggerCarriesID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	ctx, log := WithRequestLogger(ctx, base)
	ctx = ContextWithLogger(ctx, log)

	LoggerFromContext(ctx).Info(ctx, "planned", Int("passes", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if rec["request_id"] != "req-42" || rec["msg"] != "planned" || rec["passes"] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestEnsureRequestIDGeneratesOnce(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" {
		t.Fatalf("expected generated id")
	}
	if _, again := EnsureRequestID(ctx); again != id {
		t.Fatalf("EnsureRequestID = %q, want existing %q", again, id)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn(context.Background(), "kept", Err(nil))
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestOrNoop(t *testing.T) {
	if OrNoop(nil) == nil {
		t.Fatalf("OrNoop(nil) returned nil")
	}
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("empty context should carry no logger")
	}
}
