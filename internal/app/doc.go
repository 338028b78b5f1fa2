// Package app bootstraps keel and implements its run modes.
//
// NewApplication loads config.yaml, initializes logging and wires the
// services in dependency order:
//
//  1. event bus
//  2. telemetry (meter and tracer providers, shared Prometheus registry)
//  3. scheduler, bounded by scheduler.maxWorkers
//  4. kernel manager with the directory resource provider
//
// Commands then either work on a one-shot kernel (Check, Plan, Apply) or run
// the long-lived Serve mode, which keeps the installed module set in line with
// the manifest until it receives SIGINT or SIGTERM.
package app
