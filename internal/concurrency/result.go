package concurrency

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is the terminal state of one task within a process run.
type Outcome string

const (
	OutcomeNotStarted Outcome = "NotStarted"
	OutcomeSucceeded  Outcome = "Succeeded"
	OutcomeFailed     Outcome = "Failed"
	OutcomeSkipped    Outcome = "Skipped"
	OutcomeCancelled  Outcome = "Cancelled"
)

// ProcessStatus is the overall result of a process run.
type ProcessStatus string

const (
	ProcessSucceeded       ProcessStatus = "Succeeded"
	ProcessPartiallyFailed ProcessStatus = "PartiallyFailed"
	ProcessFailed          ProcessStatus = "Failed"
	ProcessCancelled       ProcessStatus = "Cancelled"
)

// TaskResult records what happened to one task.
type TaskResult struct {
	Task     *Task
	Wave     int
	Outcome  Outcome
	Value    Value
	Err      error
	Duration time.Duration
}

// ProcessResult is the aggregate outcome of a process run.
type ProcessResult struct {
	ProcessID string
	Name      string
	Status    ProcessStatus
	Waves     int
	Duration  time.Duration

	// Cause is set when the process could not run at all, for example
	// because its graph is cyclic, or when it was cancelled.
	Cause error

	order   []*Task
	results map[*Task]*TaskResult
}

func newProcessResult(p *Process) *ProcessResult {
	return &ProcessResult{
		ProcessID: p.ID(),
		Name:      p.Name(),
		results:   make(map[*Task]*TaskResult),
	}
}

func (r *ProcessResult) record(tr *TaskResult) {
	if _, ok := r.results[tr.Task]; !ok {
		r.order = append(r.order, tr.Task)
	}
	r.results[tr.Task] = tr
}

// Task returns the result for t.
func (r *ProcessResult) Task(t *Task) (TaskResult, bool) {
	tr, ok := r.results[t]
	if !ok {
		return TaskResult{}, false
	}
	return *tr, true
}

// Outcome returns t's outcome, or OutcomeNotStarted if t was never seen.
func (r *ProcessResult) Outcome(t *Task) Outcome {
	if tr, ok := r.results[t]; ok {
		return tr.Outcome
	}
	return OutcomeNotStarted
}

// Results returns every task result in wave order.
func (r *ProcessResult) Results() []TaskResult {
	res := make([]TaskResult, 0, len(r.order))
	for _, t := range r.order {
		res = append(res, *r.results[t])
	}
	return res
}

// Count returns how many tasks ended with outcome o.
func (r *ProcessResult) Count(o Outcome) int {
	n := 0
	for _, tr := range r.results {
		if tr.Outcome == o {
			n++
		}
	}
	return n
}

// Succeeded reports whether every task succeeded.
func (r *ProcessResult) Succeeded() bool {
	return r.Status == ProcessSucceeded
}

// Err joins the cause and every task failure. It is nil for a successful
// process.
func (r *ProcessResult) Err() error {
	if r.Status == ProcessSucceeded {
		return nil
	}
	var errs []error
	if r.Cause != nil {
		errs = append(errs, r.Cause)
	}
	for _, t := range r.order {
		if tr := r.results[t]; tr.Outcome == OutcomeFailed && tr.Err != nil {
			errs = append(errs, tr.Err)
		}
	}
	if len(errs) == 0 {
		return fmt.Errorf("process %s %s", r.Name, r.Status)
	}
	return fmt.Errorf("process %s %s: %w", r.Name, r.Status, errors.Join(errs...))
}

func (r *ProcessResult) finish(cancelled bool) {
	if r.Status != "" {
		return
	}
	unrecoverable := false
	for _, tr := range r.results {
		if tr.Outcome == OutcomeFailed && StatusOf(tr.Err) == StatusUnrecoverable {
			unrecoverable = true
			break
		}
	}
	switch {
	case unrecoverable:
		r.Status = ProcessFailed
	case cancelled || r.Count(OutcomeCancelled) > 0:
		r.Status = ProcessCancelled
	case r.Count(OutcomeFailed)+r.Count(OutcomeSkipped)+r.Count(OutcomeNotStarted) > 0:
		r.Status = ProcessPartiallyFailed
	default:
		r.Status = ProcessSucceeded
	}
}
