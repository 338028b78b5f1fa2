// Package kernel is the module manager. It owns the dependency graph,
// installs and resolves modules, and applies lifecycle change batches
// through the orchestrator and scheduler.
//
// Collaborators are passed in explicitly: a Registry supplies activators
// and resource providers by capability, an events.Sink receives
// milestones, and a prometheus.Registerer receives the module state gauge.
//
// Every access to the dependency graph goes through the Manager's mutex.
// Activators run outside it, so slow starts do not block unrelated calls.
package kernel
