package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"keel/pkg/logging"
)

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for an unsupported trace exporter.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter type")
)

// Trace exporter names.
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

// Config controls telemetry behavior.
type Config struct {
	// ServiceName identifies this process in traces and metrics.
	ServiceName string

	// ServiceVersion is reported as service.version.
	ServiceVersion string

	// TraceExporter is "none" (spans are recorded but not exported) or "stdout".
	TraceExporter string

	// TraceOutput receives stdout spans. Defaults to io.Discard.
	TraceOutput io.Writer

	// Registry receives the exporter's collector. A fresh registry with Go
	// runtime and process collectors is created when nil.
	Registry *prometheus.Registry
}

// Provider owns the installed providers and the metrics registry.
type Provider struct {
	registry       *prometheus.Registry
	meterProvider  *metric.MeterProvider
	tracerProvider *trace.TracerProvider
}

// Init initializes the telemetry stack and installs the global providers.
//
// The returned Provider must be shut down on exit to flush spans.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "keel"
	}
	if cfg.TraceExporter == "" {
		cfg.TraceExporter = TraceExporterNone
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp, err := initTracer(cfg, res)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logging.Info("Telemetry", "Initialized telemetry for %s (traces: %s)", cfg.ServiceName, cfg.TraceExporter)
	return &Provider{
		registry:       reg,
		meterProvider:  mp,
		tracerProvider: tp,
	}, nil
}

func initTracer(cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	}

	switch cfg.TraceExporter {
	case TraceExporterNone:
	case TraceExporterStdout:
		out := cfg.TraceOutput
		if out == nil {
			out = io.Discard
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("create exporter: %w", err)
		}
		opts = append(opts, trace.WithSyncer(exporter))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	return trace.NewTracerProvider(opts...), nil
}

// Registry returns the registry backing /metrics. Pass it to components
// that register native collectors.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns the /metrics HTTP handler.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
func (p *Provider) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return p.serve(ctx, ln)
}

func (p *Provider) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Telemetry", "Serving metrics on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
