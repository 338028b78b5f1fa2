package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// Value is whatever a task produces on success.
type Value any

// RunFunc is the body of a task.
type RunFunc func(ctx context.Context, scope *Scope) (Value, error)

// Task is a named unit of work. Identity is by pointer: two tasks with the
// same name are distinct vertices unless the caller reuses the pointer.
type Task struct {
	name string
	run  RunFunc

	mu     sync.RWMutex
	params map[string]any
}

// NewTask returns a task running fn.
func NewTask(name string, fn RunFunc) *Task {
	return &Task{name: name, run: fn, params: make(map[string]any)}
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

func (t *Task) String() string {
	return t.name
}

// SetParam installs a parameter read by the task body.
func (t *Task) SetParam(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params[key] = value
}

// Param returns a parameter installed with SetParam.
func (t *Task) Param(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.params[key]
	return v, ok
}

// Run executes the task body. Errors come back as *TaskError; a panic is
// converted into an unrecoverable one.
func (t *Task) Run(ctx context.Context, scope *Scope) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{
				Task:   t.name,
				Status: StatusUnrecoverable,
				Err:    fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()

	if t.run == nil {
		return nil, nil
	}
	v, err = t.run(ctx, scope)
	if err != nil {
		return nil, wrapTaskError(t.name, err)
	}
	return v, nil
}

// TaskStatus is the severity of a task failure.
type TaskStatus int

const (
	// StatusUnrecoverable aborts the process.
	StatusUnrecoverable TaskStatus = iota
	// StatusRecoverable skips the failed task's dependents only.
	StatusRecoverable
)

func (s TaskStatus) String() string {
	if s == StatusRecoverable {
		return "Recoverable"
	}
	return "Unrecoverable"
}

// TaskError is a task failure with its severity.
type TaskError struct {
	Task   string
	Status TaskStatus
	Err    error
}

func (e *TaskError) Error() string {
	name := e.Task
	if name == "" {
		name = "task"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s failed (%s)", name, e.Status)
	}
	return fmt.Sprintf("%s failed (%s): %v", name, e.Status, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Recoverable marks err as a recoverable task failure.
func Recoverable(err error) error {
	return &TaskError{Status: StatusRecoverable, Err: err}
}

// Unrecoverable marks err as an unrecoverable task failure. Returning a
// plain error has the same effect.
func Unrecoverable(err error) error {
	return &TaskError{Status: StatusUnrecoverable, Err: err}
}

// StatusOf returns the severity carried by err. Errors that are not task
// errors are unrecoverable.
func StatusOf(err error) TaskStatus {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Status
	}
	return StatusUnrecoverable
}

// IsRecoverable reports whether err is a recoverable task failure.
func IsRecoverable(err error) bool {
	return err != nil && StatusOf(err) == StatusRecoverable
}

func wrapTaskError(name string, err error) error {
	var te *TaskError
	if errors.As(err, &te) {
		if te.Task != "" {
			name = te.Task
		}
		return &TaskError{Task: name, Status: te.Status, Err: te.Err}
	}
	return &TaskError{Task: name, Status: StatusUnrecoverable, Err: err}
}
