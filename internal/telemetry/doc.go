// Package telemetry wires OpenTelemetry for keel.
//
// Init installs a global MeterProvider backed by the OpenTelemetry
// Prometheus exporter and a global TracerProvider. Packages keep calling
// otel.Meter and otel.Tracer directly; instruments created before Init are
// bound to the real providers once they are installed.
//
// The Prometheus exporter and the kernel's native client_golang collectors
// share one registry, so a single /metrics endpoint serves both:
//
//	prov, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "keel"})
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer prov.Shutdown(context.Background())
//
//	mgr, _ := kernel.NewManager(kernel.Config{Registerer: prov.Registry()})
//	go prov.Serve(ctx, "localhost:9464")
package telemetry
