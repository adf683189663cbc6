package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestPlanAndSweepSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test")

	ctx, plan := StartPlanSpan(context.Background(), tracer, "plan-1", 2)
	_, sweep := StartSweepSpan(ctx, tracer, "ISS", "harbour", "point")
	FinishSweepSpan(sweep, 3, nil)
	sweep.End()
	_, failed := StartSweepSpan(ctx, tracer, "BAD", "harbour", "area")
	FinishSweepSpan(failed, 0, errors.New("propagation failed"))
	failed.End()
	FinishPlanSpan(plan, 3, 1, nil)
	plan.End()

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("recorded %d spans, want 3", len(spans))
	}

	ok, bad, root := spans[0], spans[1], spans[2]
	if root.Name() != SpanPlan || ok.Name() != SpanSweep {
		t.Fatalf("span names = %q, %q", root.Name(), ok.Name())
	}
	if ok.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Fatalf("sweep span is not a child of the plan span")
	}
	a := attrs(ok)
	if a["satellite.id"].AsString() != "ISS" || a["target.name"].AsString() != "harbour" ||
		a["sweep.kind"].AsString() != "point" || a["passes"].AsInt64() != 3 {
		t.Fatalf("sweep attributes = %v", a)
	}
	if bad.Status().Code != codes.Error || len(bad.Events()) == 0 {
		t.Fatalf("failed sweep status = %v, events = %d", bad.Status(), len(bad.Events()))
	}
	r := attrs(root)
	if r["plan.id"].AsString() != "plan-1" || r["plan.targets"].AsInt64() != 2 ||
		r["plan.passes"].AsInt64() != 3 || r["plan.failures"].AsInt64() != 1 {
		t.Fatalf("plan attributes = %v", r)
	}
}

func TestCancelledPlanAndRefreshSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test")

	_, plan := StartPlanSpan(context.Background(), tracer, "plan-2", 1)
	FinishPlanSpan(plan, 0, 0, context.Canceled)
	plan.End()

	now := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	_, refresh := StartRefreshSpan(context.Background(), tracer, now)
	FinishRefreshSpan(refresh, 4, 1)
	refresh.End()

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("cancelled plan status = %v", spans[0].Status())
	}
	if _, ok := attrs(spans[0])["plan.passes"]; ok {
		t.Fatalf("cancelled plan should not carry totals")
	}
	r := attrs(spans[1])
	if spans[1].Name() != SpanRefresh || r["tracker.now"].AsString() != "2021-10-02T12:00:00Z" ||
		r["tracker.recomputed"].AsInt64() != 4 || r["tracker.failures"].AsInt64() != 1 {
		t.Fatalf("refresh span %q attributes = %v", spans[1].Name(), r)
	}
}
