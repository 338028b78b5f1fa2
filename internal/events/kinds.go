package events

import (
	"time"

	"keel/internal/coordinate"
)

// Kind identifies a lifecycle or process milestone.
type Kind string

// Installation events
const (
	// KindModuleSetInstallationInitiated is emitted before a batch of modules is checked.
	KindModuleSetInstallationInitiated Kind = "ModuleSetInstallationInitiated"

	// KindModuleSetInstallationCompleted is emitted after a batch was committed.
	KindModuleSetInstallationCompleted Kind = "ModuleSetInstallationCompleted"

	// KindModuleSetInstallationFailed is emitted when a batch was rejected.
	KindModuleSetInstallationFailed Kind = "ModuleSetInstallationFailed"

	KindModuleInstallationInitiated Kind = "ModuleInstallationInitiated"
	KindModuleInstallationCompleted Kind = "ModuleInstallationCompleted"
	KindModuleInstallationFailed    Kind = "ModuleInstallationFailed"
)

// Lifecycle events, one per state a module enters.
const (
	KindModuleResolved Kind = "ModuleResolved"
	KindModuleStarting Kind = "ModuleStarting"
	KindModuleStarted  Kind = "ModuleStarted"
	KindModuleStopping Kind = "ModuleStopping"
	KindModuleStopped  Kind = "ModuleStopped"
	KindModuleFailed   Kind = "ModuleFailed"
	KindModuleRemoved  Kind = "ModuleRemoved"
)

// Process events
const (
	// KindProcessSubmitted is emitted when a process is handed to the scheduler.
	KindProcessSubmitted Kind = "ProcessSubmitted"

	// KindProcessCompleted is emitted once every launched task has finished.
	KindProcessCompleted Kind = "ProcessCompleted"

	// KindTaskStatusChanged is emitted whenever a task starts or reaches a
	// terminal outcome.
	KindTaskStatusChanged Kind = "TaskStatusChanged"
)

// Event is one dispatched milestone.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Payload   any
}

// ModulePayload accompanies installation and lifecycle events.
type ModulePayload struct {
	Coordinate coordinate.Coordinate
	From       string
	To         string
	Err        error
}

// ModuleSetPayload accompanies module set installation events.
type ModuleSetPayload struct {
	Coordinates []coordinate.Coordinate
	Err         error
}

// TaskPayload accompanies KindTaskStatusChanged.
type TaskPayload struct {
	ProcessID string
	Task      string
	Status    string
	Err       error
}

// ProcessPayload accompanies process events.
type ProcessPayload struct {
	ProcessID string
	Name      string
	Status    string
	Tasks     int
	Err       error
}

// Err returns the failure carried by the payload, if any.
func (e Event) Err() error {
	switch p := e.Payload.(type) {
	case ModulePayload:
		return p.Err
	case ModuleSetPayload:
		return p.Err
	case TaskPayload:
		return p.Err
	case ProcessPayload:
		return p.Err
	default:
		return nil
	}
}
