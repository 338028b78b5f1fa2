package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"keel/internal/concurrency"
	"keel/internal/config"
	"keel/internal/dependency"
	"keel/internal/kernel"
	"keel/internal/module"
	"keel/internal/orchestrator"
	"keel/pkg/logging"
)

// shutdownTimeout bounds the final stop of all active modules.
const shutdownTimeout = 30 * time.Second

// Serve installs, resolves and starts the manifest modules, serves metrics
// and re-syncs whenever the manifest changes. It returns after SIGINT or
// SIGTERM (or ctx cancellation) once every active module is stopped.
func (a *Application) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go logEvents(ctx, a.services.Bus.Subscribe(0))

	manifest, err := a.LoadManifest()
	if err != nil {
		return err
	}
	if _, err := a.Sync(ctx, manifest, true); err != nil {
		logging.Error("App", err, "Initial sync completed with errors")
	}

	g, gctx := errgroup.WithContext(ctx)

	if prov := a.services.Telemetry; prov != nil {
		addr := a.config.KeelConfig.Telemetry.MetricsAddress
		g.Go(func() error {
			return prov.Serve(gctx, addr)
		})
	}

	watcher := config.NewManifestWatcher(a.services.ManifestPath, 0)
	changes := make(chan config.ManifestChange, 1)
	if err := watcher.Start(gctx, changes); err != nil {
		logging.Warn("App", "Manifest changes will not be picked up: %v", err)
	} else {
		defer watcher.Stop()
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case change := <-changes:
				logging.Info("App", "Manifest %s changed (%s), re-syncing", change.Path, change.Operation)
				m, err := config.LoadManifest(change.Path)
				if err != nil {
					logging.Error("App", err, "Ignoring invalid manifest")
					continue
				}
				if _, err := a.Sync(gctx, m, true); err != nil {
					logging.Error("App", err, "Sync completed with errors")
				}
			}
		}
	})

	logging.Info("App", "Modules started. Press Ctrl+C to stop all modules and exit.")
	serveErr := g.Wait()

	logging.Info("App", "Stopping all modules")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if _, err := a.services.Kernel.StopAll(stopCtx); err != nil {
		logging.Error("App", err, "Failed to stop every module")
	}
	return serveErr
}

// Check installs the manifest without resolving or starting anything and
// reports its consistency problems.
func (a *Application) Check(ctx context.Context) (kernel.Report, error) {
	manifest, err := a.LoadManifest()
	if err != nil {
		return kernel.Report{}, err
	}
	mods, err := a.open(manifest)
	if err != nil {
		return kernel.Report{}, err
	}
	if _, err := a.services.Kernel.Install(ctx, mods...); err != nil {
		var cyclic *dependency.CyclicDependencyError
		if errors.As(err, &cyclic) {
			return kernel.Report{Cycles: cyclic.Cycles}, nil
		}
		return kernel.Report{}, err
	}
	return a.services.Kernel.Check(), nil
}

// Plan syncs the manifest and prepares batch without committing it.
func (a *Application) Plan(ctx context.Context, batch orchestrator.Batch) (*orchestrator.ChangeGroup, error) {
	if err := a.load(ctx, false); err != nil {
		return nil, err
	}
	return a.services.Kernel.Prepare(batch)
}

// Apply syncs the manifest and runs batch to completion.
func (a *Application) Apply(ctx context.Context, batch orchestrator.Batch) (*concurrency.ProcessResult, error) {
	family, err := batch.Family()
	if err != nil {
		return nil, err
	}
	// Stopping or deleting only does something to running modules.
	if err := a.load(ctx, family == module.FamilyStop); err != nil {
		return nil, err
	}
	return a.services.Kernel.Apply(ctx, batch)
}

// load brings the kernel to the manifest state.
func (a *Application) load(ctx context.Context, start bool) error {
	manifest, err := a.LoadManifest()
	if err != nil {
		return err
	}
	if _, err := a.Sync(ctx, manifest, start); err != nil {
		logging.Warn("App", "Manifest sync completed with errors: %v", err)
	}
	return nil
}

func (a *Application) open(manifest config.Manifest) ([]*module.Module, error) {
	var (
		mods []*module.Module
		errs []error
	)
	for _, entry := range manifest.Modules {
		c, typ, deps, err := entry.Parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := a.services.Kernel.Open(c, typ, deps...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mods = append(mods, m)
	}
	return mods, errors.Join(errs...)
}

// List syncs the manifest without starting anything and returns the
// resulting module statuses.
func (a *Application) List(ctx context.Context) ([]kernel.ModuleStatus, error) {
	if err := a.load(ctx, false); err != nil {
		return nil, err
	}
	return a.services.Kernel.Modules(), nil
}
