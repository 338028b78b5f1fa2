// Package orchestrator turns lifecycle change requests into task graphs.
//
// A batch of (coordinate, action) requests is expanded along the
// dependency graph:
//
//   - Stop and Delete walk the dependents of each target, dependents
//     first, and create one stop task per resolved module reached.
//   - Activate walks the dependencies of each target, dependencies first,
//     and creates one start task per resolved module reached.
//   - Delete additionally adds a remove task per target that runs after
//     the target's stop task.
//   - Resolve creates one resolve task per target.
//
// Tasks are coalesced per (kind, coordinate), so overlapping closures in
// one batch share work. Edges between tasks mirror the dependency edges
// inside the closure, which lets independent branches run in the same
// wave.
//
// A batch must not mix the start family (Resolve, Activate) with the stop
// family (Stop, Delete); Prepare rejects such batches with ErrMixedActions.
//
// The orchestrator reads the dependency graph but never mutates it. Callers
// serialize Prepare with any graph mutation.
package orchestrator
