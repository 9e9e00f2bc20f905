package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTestTracer swaps the global provider for one backed by an
// in-memory exporter and restores it on cleanup.
func installTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})
	return exp
}

func TestCorrelationID(t *testing.T) {
	installTestTracer(t)

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}

	ctx, span := StartSpan(context.Background(), "dex.resolve")
	defer span.End()

	cid := CorrelationID(ctx)
	if len(cid) != 32 {
		t.Fatalf("correlation ID = %q, want 32 hex characters", cid)
	}
	if strings.Trim(cid, "0123456789abcdef") != "" {
		t.Errorf("correlation ID %q contains non-hex characters", cid)
	}

	ctx2, span2 := StartSpan(context.Background(), "dex.resolve")
	defer span2.End()
	if CorrelationID(ctx2) == cid {
		t.Error("two independent traces share a correlation ID")
	}
}

func TestStartSpan_RecordsName(t *testing.T) {
	exp := installTestTracer(t)

	_, span := StartSpan(context.Background(), "answer")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "answer" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "answer")
	}
}

func TestRecordError(t *testing.T) {
	exp := installTestTracer(t)

	_, span := StartSpan(context.Background(), "dex.resolve")
	RecordError(span, errors.New("pokeapi unreachable"))
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", got.Status.Code)
	}
	if got.Status.Description != "pokeapi unreachable" {
		t.Errorf("span status description = %q", got.Status.Description)
	}
	if len(got.Events) == 0 {
		t.Error("span has no error event")
	}
}

func TestRecordError_NilIsNoOp(t *testing.T) {
	exp := installTestTracer(t)

	_, span := StartSpan(context.Background(), "dex.resolve")
	RecordError(span, nil)
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("nil error marked the span failed")
	}
	if len(spans[0].Events) != 0 {
		t.Errorf("nil error produced %d events", len(spans[0].Events))
	}
}

func TestLogger_AnnotatesActiveSpan(t *testing.T) {
	installTestTracer(t)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(slog.Default()) })

	ctx, span := StartSpan(context.Background(), "dex.resolve")
	defer span.End()

	Logger(ctx).Info("resolved", "creature", "pikachu")

	logged := buf.String()
	if !strings.Contains(logged, "trace_id=") || !strings.Contains(logged, "span_id=") {
		t.Errorf("log line missing trace annotations: %s", logged)
	}

	buf.Reset()
	Logger(context.Background()).Info("no span here")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("log line unexpectedly annotated: %s", buf.String())
	}
}
