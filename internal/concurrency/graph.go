package concurrency

import (
	"errors"
	"fmt"

	"keel/internal/dag"
)

// ErrSelfDependency is returned when a task is connected to itself.
var ErrSelfDependency = errors.New("task cannot depend on itself")

// TaskGraph is a DAG of tasks connected by depends-on edges. Acyclicity is
// not checked on insertion; Waves reports a cycle.
type TaskGraph struct {
	g *dag.Digraph[*Task]
}

// NewTaskGraph returns an empty graph.
func NewTaskGraph() *TaskGraph {
	return &TaskGraph{g: dag.New[*Task]()}
}

// Add inserts t. It reports false when t was already present.
func (tg *TaskGraph) Add(t *Task) bool {
	return tg.g.AddVertex(t)
}

// Connect records that task runs after dependsOn, adding either if
// missing. Duplicate edges are ignored.
func (tg *TaskGraph) Connect(task, dependsOn *Task) error {
	if task == dependsOn {
		return fmt.Errorf("%w: %s", ErrSelfDependency, task.Name())
	}
	tg.g.Connect(task, dependsOn)
	return nil
}

// Contains reports whether t is in the graph.
func (tg *TaskGraph) Contains(t *Task) bool {
	return tg.g.ContainsVertex(t)
}

// DependsOn reports whether task has a direct edge to dependsOn.
func (tg *TaskGraph) DependsOn(task, dependsOn *Task) bool {
	return tg.g.ContainsEdge(task, dependsOn)
}

// Tasks returns every task in insertion order.
func (tg *TaskGraph) Tasks() []*Task {
	return tg.g.Vertices()
}

// Dependencies returns the tasks t directly depends on.
func (tg *TaskGraph) Dependencies(t *Task) []*Task {
	return tg.g.Successors(t)
}

// Dependents returns the tasks that directly depend on t.
func (tg *TaskGraph) Dependents(t *Task) []*Task {
	return tg.g.Predecessors(t)
}

// Len returns the number of tasks.
func (tg *TaskGraph) Len() int {
	return tg.g.Len()
}

// Find returns the first task with the given name.
func (tg *TaskGraph) Find(name string) (*Task, bool) {
	for _, t := range tg.g.Vertices() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Waves levels the graph: each wave depends only on earlier ones.
func (tg *TaskGraph) Waves() ([][]*Task, error) {
	return dag.Schedule(tg.g, nil, nil)
}
