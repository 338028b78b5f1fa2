package app

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"keel/internal/concurrency"
	"keel/internal/config"
	"keel/internal/events"
	"keel/internal/kernel"
	"keel/internal/telemetry"
	"keel/pkg/logging"
)

// Services holds every component the run modes use.
type Services struct {
	// Bus fans lifecycle and task events out to subscribers.
	Bus *events.Bus

	// Telemetry is nil when telemetry is disabled.
	Telemetry *telemetry.Provider

	Scheduler *concurrency.Scheduler
	Kernel    *kernel.Manager

	// ManifestPath is the resolved location of the module manifest.
	ManifestPath string
}

// InitializeServices creates the services for cfg in dependency order.
func InitializeServices(ctx context.Context, cfg *Config, version string) (*Services, error) {
	kc := cfg.KeelConfig
	bus := events.NewBus()

	var (
		prov       *telemetry.Provider
		registerer prometheus.Registerer
	)
	if kc.Telemetry.Enabled {
		var err error
		prov, err = telemetry.Init(ctx, telemetry.Config{
			ServiceName:    kc.Telemetry.ServiceName,
			ServiceVersion: version,
		})
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		registerer = prov.Registry()
	}

	scheduler := concurrency.NewScheduler(concurrency.Config{
		MaxWorkers: kc.Scheduler.MaxWorkers,
		Sink:       bus,
	})

	registry := kernel.NewRegistry()
	if dir := config.ModuleDir(cfg.ConfigPath, *kc); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			registry.Register(kernel.CapabilityResources, kernel.DirectoryResources{Root: dir}, 0)
			logging.Debug("Bootstrap", "Module resources are opened from %s", dir)
		} else {
			logging.Info("Bootstrap", "Module directory %s not found, modules run without resources", dir)
		}
	}

	mgr, err := kernel.NewManager(kernel.Config{
		Registry:   registry,
		Sink:       bus,
		Scheduler:  scheduler,
		Registerer: registerer,
	})
	if err != nil {
		if prov != nil {
			_ = prov.Shutdown(ctx)
		}
		return nil, fmt.Errorf("create kernel: %w", err)
	}

	logging.Info("Bootstrap", "Initialized kernel with %d workers", scheduler.MaxWorkers())
	return &Services{
		Bus:          bus,
		Telemetry:    prov,
		Scheduler:    scheduler,
		Kernel:       mgr,
		ManifestPath: config.ManifestPath(cfg.ConfigPath, *kc),
	}, nil
}

// Close stops the event bus and flushes telemetry.
func (s *Services) Close(ctx context.Context) error {
	s.Bus.Close()
	if s.Telemetry != nil {
		return s.Telemetry.Shutdown(ctx)
	}
	return nil
}
