// Package concurrency runs graphs of tasks with bounded parallelism.
//
// A Process owns a TaskGraph and a root Scope. The Scheduler levels the
// graph into waves with dag.Schedule and runs each wave concurrently,
// waiting for the whole wave before launching the next one. A semaphore
// shared by every process submitted to the same Scheduler caps the number
// of tasks running at once.
//
// # Failure handling
//
// A task fails by returning an error. Wrap it with Recoverable to let the
// process continue: every task that depends on the failed one, directly or
// transitively, is skipped, while unrelated branches keep running. Any
// other error, including a panic, is unrecoverable: tasks already running
// in the current wave finish, but no later wave is launched.
//
// # Completion
//
// Submit returns a Future that completes once every launched task has
// finished. Cancelling the future stops further waves from launching and
// cancels the context handed to running tasks.
package concurrency
