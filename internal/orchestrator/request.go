package orchestrator

import (
	"fmt"
	"strings"

	"keel/internal/coordinate"
	"keel/internal/module"
)

// Request asks for one module to go through one lifecycle action.
type Request struct {
	Coordinate coordinate.Coordinate
	Action     module.Action
}

func (r Request) String() string {
	return r.Action.String() + " " + r.Coordinate.String()
}

// Batch is a set of requests submitted together.
type Batch []Request

// NewBatch builds a batch applying the same action to every coordinate.
func NewBatch(action module.Action, coords ...coordinate.Coordinate) Batch {
	b := make(Batch, len(coords))
	for i, c := range coords {
		b[i] = Request{Coordinate: c, Action: action}
	}
	return b
}

// Family returns the action family shared by every request, or
// ErrMixedActions.
func (b Batch) Family() (module.Family, error) {
	if len(b) == 0 {
		return 0, ErrEmptyBatch
	}
	family := b[0].Action.Family()
	for _, r := range b[1:] {
		if r.Action.Family() != family {
			return 0, fmt.Errorf("%w: %s and %s", ErrMixedActions, b[0], r)
		}
	}
	return family, nil
}

func (b Batch) String() string {
	parts := make([]string, len(b))
	for i, r := range b {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// Kind is one of the fixed task kinds the orchestrator creates.
type Kind int

const (
	KindResolve Kind = iota
	KindStart
	KindStop
	KindRemove
)

func (k Kind) String() string {
	switch k {
	case KindResolve:
		return "resolve"
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	case KindRemove:
		return "remove"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TaskName returns the name of the task of the given kind for c, such as
// "module:start:io.keel:kernel-lib:1.0.0".
func TaskName(kind Kind, c coordinate.Coordinate) string {
	return "module:" + kind.String() + ":" + c.String()
}
