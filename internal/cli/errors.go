package cli

import (
	"fmt"

	"keel/internal/concurrency"
)

// ProblemsFoundError indicates that check found unresolved dependencies or
// cycles.
type ProblemsFoundError struct {
	Unresolved int
	Cycles     int
}

// Error returns a user-friendly error message with actionable guidance.
func (e *ProblemsFoundError) Error() string {
	return fmt.Sprintf(`manifest has %d unresolved module(s) and %d cycle(s)

Add the missing modules to the manifest or break the cycles, then run:
  keel check`, e.Unresolved, e.Cycles)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ProblemsFoundError) Is(target error) bool {
	_, ok := target.(*ProblemsFoundError)
	return ok
}

// ProcessFailedError indicates that a lifecycle process did not succeed.
type ProcessFailedError struct {
	ProcessID string
	Status    concurrency.ProcessStatus
	// Reason is the joined task failures.
	Reason error
}

// Error returns the process status and its failures.
func (e *ProcessFailedError) Error() string {
	return fmt.Sprintf("process %s finished %s: %v", e.ProcessID, e.Status, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ProcessFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ProcessFailedError) Is(target error) bool {
	_, ok := target.(*ProcessFailedError)
	return ok
}

// NewProcessFailedError wraps the failure of r, or returns nil when r
// succeeded.
func NewProcessFailedError(r *concurrency.ProcessResult) error {
	if r == nil || r.Succeeded() {
		return nil
	}
	return &ProcessFailedError{ProcessID: r.ProcessID, Status: r.Status, Reason: r.Err()}
}
