package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/moonbrew/go-rewards-backend/internal/config"
)

// SetupOTel mutates the process-wide tracer provider and propagator; every
// test snapshots and restores them so order does not matter.
func snapshotGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func otelCfg(insecure bool, svc string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: svc,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	snapshotGlobals(t)

	cfg := otelCfg(true, "rewards-off")
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("want non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestSetupOTel_InsecureBranch(t *testing.T) {
	snapshotGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelCfg(true, "rewards-insecure"), "v1.2.3")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("want *sdktrace.TracerProvider installed globally")
	}

	// Round-trip the composite propagator with a real span context.
	carrier := propagation.MapCarrier{}
	ctx, span := otel.Tracer("plinko").Start(context.Background(), "drop")
	span.End()
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	_ = otel.GetTextMapPropagator().Extract(context.Background(), carrier)
}

func TestSetupOTel_TLSBranch(t *testing.T) {
	snapshotGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelCfg(false, "rewards-tls"), "v9.9.9")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("want *sdktrace.TracerProvider installed globally")
	}

	_, span := otel.Tracer("mines").Start(context.Background(), "reveal")
	span.End()
}

func TestSetupOTel_CanceledContext(t *testing.T) {
	snapshotGlobals(t)

	// The gRPC exporter dials lazily, so a dead context at setup time is
	// not an error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, otelCfg(true, "rewards-canceled"), "vX.Y.Z")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("want non-nil shutdown func")
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_ExporterFailureLeavesGlobalsAlone(t *testing.T) {
	snapshotGlobals(t)

	orig := newOTLPExporterFn
	defer func() { newOTLPExporterFn = orig }()
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("exporter down")
	}

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	if _, err := SetupOTel(context.Background(), otelCfg(true, "rewards"), "v0"); err == nil {
		t.Fatalf("want error from exporter seam, got nil")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider replaced despite setup failure")
	}
	if otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("propagator replaced despite setup failure")
	}
}

func TestSetupOTel_ResourceFailureLeavesGlobalsAlone(t *testing.T) {
	snapshotGlobals(t)

	orig := newServiceResourceFn
	defer func() { newServiceResourceFn = orig }()
	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, errors.New("resource build failed")
	}

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	if _, err := SetupOTel(context.Background(), otelCfg(true, "rewards"), "v0"); err == nil {
		t.Fatalf("want error from resource seam, got nil")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider replaced despite setup failure")
	}
	if otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("propagator replaced despite setup failure")
	}
}

func TestSetupOTel_ShutdownWithinDeadline(t *testing.T) {
	snapshotGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelCfg(true, "rewards-shutdown"), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestSetupOTel_SpanSmoke(t *testing.T) {
	snapshotGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelCfg(true, "rewards-span"), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, span := otel.Tracer("wallet").Start(context.Background(), "summary", trace.WithSpanKind(trace.SpanKindInternal))
	span.End()
}
