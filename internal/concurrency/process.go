package concurrency

import (
	"github.com/google/uuid"
)

// Process is one submitted task graph together with its root scope. It is
// created per request and not reused.
type Process struct {
	id    string
	name  string
	graph *TaskGraph
	scope *Scope
}

// NewProcess wraps graph in a process with a fresh root scope.
func NewProcess(name string, graph *TaskGraph) *Process {
	return &Process{
		id:    uuid.New().String(),
		name:  name,
		graph: graph,
		scope: NewScope(),
	}
}

// ID returns the unique process identifier.
func (p *Process) ID() string { return p.id }

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Graph returns the task graph.
func (p *Process) Graph() *TaskGraph { return p.graph }

// Scope returns the root scope shared by every task.
func (p *Process) Scope() *Scope { return p.scope }
