package module

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a module.
type State string

const (
	StateInstalled State = "Installed"
	StateResolved  State = "Resolved"
	StateStarting  State = "Starting"
	StateActive    State = "Active"
	StateStopping  State = "Stopping"
	StateFailed    State = "Failed"
	StateRemoved   State = "Removed"
)

// AllStates lists every state in lifecycle order.
var AllStates = []State{
	StateInstalled, StateResolved, StateStarting, StateActive,
	StateStopping, StateFailed, StateRemoved,
}

// IsResolved reports whether a module in this state has had its
// dependencies satisfied and has not been torn down since.
func (s State) IsResolved() bool {
	switch s {
	case StateResolved, StateStarting, StateActive, StateStopping:
		return true
	default:
		return false
	}
}

// Action is a requested lifecycle change. Actions are ordered by strength:
// a stronger action implies the weaker ones of its family run first.
type Action int

const (
	ActionResolve Action = iota
	ActionActivate
	ActionStop
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionResolve:
		return "resolve"
	case ActionActivate:
		return "activate"
	case ActionStop:
		return "stop"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction maps the names printed by Action.String, plus "start" as an
// alias for activate, back to actions.
func ParseAction(s string) (Action, error) {
	switch s {
	case "resolve":
		return ActionResolve, nil
	case "activate", "start":
		return ActionActivate, nil
	case "stop":
		return ActionStop, nil
	case "delete", "remove":
		return ActionDelete, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// IsAtLeast reports whether a is as strong as other.
func (a Action) IsAtLeast(other Action) bool {
	return a >= other
}

// Family groups actions that may share one change batch.
type Family int

const (
	FamilyStart Family = iota
	FamilyStop
)

func (f Family) String() string {
	if f == FamilyStop {
		return "stop"
	}
	return "start"
}

// Family returns the action family: resolve and activate bring modules up,
// stop and delete take them down.
func (a Action) Family() Family {
	if a.IsAtLeast(ActionStop) {
		return FamilyStop
	}
	return FamilyStart
}

// ErrIllegalTransition is returned when a lifecycle change is not allowed
// from the current state.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

var transitions = map[State][]State{
	StateInstalled: {StateResolved, StateFailed, StateRemoved},
	StateResolved:  {StateResolved, StateStarting, StateFailed, StateRemoved},
	StateStarting:  {StateActive, StateFailed},
	StateActive:    {StateStopping, StateFailed},
	StateStopping:  {StateResolved, StateFailed},
	StateFailed:    {StateResolved, StateFailed, StateRemoved},
	StateRemoved:   nil,
}

// CanTransition reports whether from → to is a legal change.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateChangeCallback observes lifecycle changes.
type StateChangeCallback func(from, to State)

// Lifecycle holds a module's state and enforces legal transitions. It is
// safe for concurrent use.
type Lifecycle struct {
	mu       sync.RWMutex
	state    State
	onChange StateChangeCallback
}

// NewLifecycle returns a lifecycle in StateInstalled.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateInstalled}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// SetStateChangeCallback registers fn to be called after every transition.
func (l *Lifecycle) SetStateChangeCallback(fn StateChangeCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Transition moves to the given state or returns ErrIllegalTransition.
func (l *Lifecycle) Transition(to State) error {
	l.mu.Lock()
	from := l.state
	if !CanTransition(from, to) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	l.state = to
	cb := l.onChange
	l.mu.Unlock()

	if cb != nil && from != to {
		cb(from, to)
	}
	return nil
}
