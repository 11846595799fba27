package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/autopublish/pkg/config"
)

func newRecordingTracer() (*Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewWithProvider(provider), recorder
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tr.Enabled() {
		t.Error("expected disabled tracer")
	}

	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop tracer should not produce trace IDs")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestTracer_ChildSpans(t *testing.T) {
	tr, recorder := newRecordingTracer()

	ctx, run := tr.Start(context.Background(), "autopublish.run", RunAttributes("run-1", true)...)
	_, phase := tr.Start(ctx, "autopublish.publish", RuleAttributes("publish", "publish", []string{"Document"})...)
	phase.SetAttributes(CountAttributes(2, 1)...)
	End(phase, nil)
	End(run, errors.New("mail failed"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("phase span should be a child of the run span")
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status on run span, got %v", spans[1].Status().Code)
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected ok status on phase span, got %v", spans[0].Status().Code)
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tr *Tracer
	_, span := tr.Start(context.Background(), "x")
	span.End()
	if tr.Enabled() {
		t.Error("nil tracer must report disabled")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{SamplerRatio, 1.5, true},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestHTTPMiddleware(t *testing.T) {
	tr, recorder := newRecordingTracer()

	handler := tr.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceID(r.Context()) == "" {
			t.Error("expected trace context in handler")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if rec.Header().Get("X-Trace-ID") == "" {
		t.Error("expected X-Trace-ID header")
	}
	if got := len(recorder.Ended()); got != 1 {
		t.Errorf("expected 1 span, got %d", got)
	}
}
