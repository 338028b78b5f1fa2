package dependency

import (
	"errors"
	"fmt"
	"strings"

	"keel/internal/coordinate"
	"keel/internal/dag"
	"keel/internal/module"
)

// UnsatisfiedDependencySet records the declared dependencies of Source that
// no present module satisfies.
type UnsatisfiedDependencySet struct {
	Source  coordinate.Coordinate
	Missing []coordinate.Coordinate
}

// IsSatisfied reports whether nothing is missing.
func (s UnsatisfiedDependencySet) IsSatisfied() bool {
	return len(s.Missing) == 0
}

func (s UnsatisfiedDependencySet) String() string {
	missing := make([]string, len(s.Missing))
	for i, c := range s.Missing {
		missing[i] = c.String()
	}
	return fmt.Sprintf("%s depends on [%s]", s.Source, strings.Join(missing, ", "))
}

// CyclicDependencySet is a cyclic component together with the module that
// was being installed when it was found.
type CyclicDependencySet struct {
	Source    coordinate.Coordinate
	Component dag.Component[coordinate.Coordinate]
}

func (s CyclicDependencySet) String() string {
	parts := make([]string, 0, len(s.Component.Vertices)+1)
	for _, c := range s.Component.Vertices {
		parts = append(parts, c.String())
	}
	if len(parts) > 0 {
		parts = append(parts, parts[0])
	}
	return strings.Join(parts, " -> ")
}

// CyclesFor returns one set per cyclic component of p that contains a
// module of batch. The source is the first batch module found in it.
func CyclesFor(p *dag.Partition[coordinate.Coordinate], batch []*module.Module) []CyclicDependencySet {
	var res []CyclicDependencySet
	seen := make(map[int]bool)
	for i, comp := range p.Components {
		if !comp.Cyclic() || seen[i] {
			continue
		}
		for _, m := range batch {
			if comp.Contains(m.Coordinate) {
				seen[i] = true
				res = append(res, CyclicDependencySet{Source: m.Coordinate, Component: comp})
				break
			}
		}
	}
	return res
}

// CyclicDependencyError carries every cyclic component a batch introduced.
type CyclicDependencyError struct {
	Cycles []CyclicDependencySet
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = c.String()
	}
	return fmt.Sprintf("cyclic dependencies detected: [%s]", strings.Join(parts, "; "))
}

// Coordinates returns every coordinate in every cycle.
func (e *CyclicDependencyError) Coordinates() []coordinate.Coordinate {
	var res []coordinate.Coordinate
	for _, c := range e.Cycles {
		res = append(res, c.Component.Vertices...)
	}
	return res
}

// UnresolvedDependencyError carries every unsatisfied set found.
type UnresolvedDependencyError struct {
	Message string
	Sets    []UnsatisfiedDependencySet
}

func (e *UnresolvedDependencyError) Error() string {
	parts := make([]string, len(e.Sets))
	for i, s := range e.Sets {
		parts[i] = s.String()
	}
	msg := e.Message
	if msg == "" {
		msg = "unresolved dependencies"
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(parts, "; "))
}

// IsCyclicDependency reports whether err is or wraps a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	var target *CyclicDependencyError
	return errors.As(err, &target)
}

// IsUnresolvedDependency reports whether err is or wraps an
// UnresolvedDependencyError.
func IsUnresolvedDependency(err error) bool {
	var target *UnresolvedDependencyError
	return errors.As(err, &target)
}
