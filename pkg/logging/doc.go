// Package logging provides keel's subsystem logger.
//
// It wraps log/slog with a process-wide logger and a small printf-style API
// where every entry carries the emitting subsystem:
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
//	logging.Info("Kernel", "Installed %d modules", n)
//	logging.Debug("Scheduler", "Wave %d has %d tasks", i, len(wave))
//	logging.Error("Orchestrator", err, "Task %s failed", name)
//
// Calls made before Init are dropped, which keeps library packages quiet in
// tests unless a test initializes logging itself.
//
// Subsystems used across keel: App, ConfigLoader, ManifestWatcher, Kernel,
// Orchestrator, Scheduler, Events, Telemetry.
package logging
