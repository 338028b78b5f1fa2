package app

import (
	"context"
	"errors"
	"fmt"

	"keel/internal/concurrency"
	"keel/internal/config"
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/module"
	"keel/internal/orchestrator"
	"keel/pkg/logging"
)

// SyncResult summarizes one reconciliation of the kernel against a manifest.
type SyncResult struct {
	Installed   []coordinate.Coordinate
	Removed     []coordinate.Coordinate
	Unsatisfied []dependency.UnsatisfiedDependencySet
	Processes   []*concurrency.ProcessResult
}

// Sync brings the installed module set in line with manifest: modules
// missing from the manifest are stopped and deleted, new entries are
// installed, unresolved modules are resolved and, when start is set, the
// entries marked start are activated.
//
// Sync keeps going after partial failures and returns them joined.
func (a *Application) Sync(ctx context.Context, manifest config.Manifest, start bool) (*SyncResult, error) {
	mgr := a.services.Kernel
	result := &SyncResult{}
	var errs []error

	desired := make(map[coordinate.Coordinate]config.ManifestModule, len(manifest.Modules))
	for _, entry := range manifest.Modules {
		c, _, _, err := entry.Parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		desired[c] = entry
	}

	var stale []coordinate.Coordinate
	installed := make(map[coordinate.Coordinate]bool)
	for _, s := range mgr.Modules() {
		installed[s.Coordinate] = true
		if _, ok := desired[s.Coordinate]; !ok {
			stale = append(stale, s.Coordinate)
		}
	}
	if len(stale) > 0 {
		if _, err := a.apply(ctx, orchestrator.NewBatch(module.ActionDelete, stale...), result); err != nil {
			errs = append(errs, err)
		}
		for _, c := range stale {
			if _, still := mgr.Module(c); !still {
				result.Removed = append(result.Removed, c)
			}
		}
	}

	var fresh []*module.Module
	for _, entry := range manifest.Modules {
		c, typ, deps, err := entry.Parse()
		if err != nil || installed[c] {
			continue
		}
		m, err := mgr.Open(c, typ, deps...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) > 0 {
		unsatisfied, err := mgr.Install(ctx, fresh...)
		if err != nil {
			errs = append(errs, err)
		} else {
			for _, m := range fresh {
				result.Installed = append(result.Installed, m.Coordinate)
			}
			result.Unsatisfied = unsatisfied
		}
	}

	var unresolved []coordinate.Coordinate
	for _, s := range mgr.Modules() {
		if !s.State.IsResolved() {
			unresolved = append(unresolved, s.Coordinate)
		}
	}
	if len(unresolved) > 0 {
		if _, err := a.apply(ctx, orchestrator.NewBatch(module.ActionResolve, unresolved...), result); err != nil {
			errs = append(errs, err)
		}
	}

	if start {
		var targets []coordinate.Coordinate
		for _, c := range manifest.StartTargets() {
			s, ok := mgr.Module(c)
			if !ok || !s.State.IsResolved() {
				logging.Warn("App", "Not starting %s: module is not resolved", c)
				continue
			}
			if s.State != module.StateActive {
				targets = append(targets, c)
			}
		}
		if len(targets) > 0 {
			if _, err := a.apply(ctx, orchestrator.NewBatch(module.ActionActivate, targets...), result); err != nil {
				errs = append(errs, err)
			}
		}
	}

	logging.Info("App", "Synced manifest: %d installed, %d removed, %d modules total",
		len(result.Installed), len(result.Removed), len(mgr.Modules()))
	return result, errors.Join(errs...)
}

// apply runs batch and records its process result.
func (a *Application) apply(ctx context.Context, batch orchestrator.Batch, result *SyncResult) (*concurrency.ProcessResult, error) {
	res, err := a.services.Kernel.Apply(ctx, batch)
	if res != nil {
		result.Processes = append(result.Processes, res)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", batch, err)
	}
	return res, nil
}
