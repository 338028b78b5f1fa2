package concurrency

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskErrorStatus(t *testing.T) {
	base := errors.New("base")

	tests := []struct {
		name        string
		err         error
		wantStatus  TaskStatus
		recoverable bool
	}{
		{name: "plain error", err: base, wantStatus: StatusUnrecoverable},
		{name: "recoverable", err: Recoverable(base), wantStatus: StatusRecoverable, recoverable: true},
		{name: "wrapped recoverable", err: fmt.Errorf("ctx: %w", Recoverable(base)), wantStatus: StatusRecoverable, recoverable: true},
		{name: "unrecoverable", err: Unrecoverable(base), wantStatus: StatusUnrecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, StatusOf(tt.err))
			assert.Equal(t, tt.recoverable, IsRecoverable(tt.err))
			assert.ErrorIs(t, tt.err, base)
		})
	}
	assert.False(t, IsRecoverable(nil))
}

func TestTaskRunNamesErrors(t *testing.T) {
	base := errors.New("base")
	task := NewTask("module:start:g:a:1.0.0", func(context.Context, *Scope) (Value, error) {
		return nil, Recoverable(base)
	})

	_, err := task.Run(context.Background(), NewScope())
	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "module:start:g:a:1.0.0", te.Task)
	assert.Equal(t, StatusRecoverable, te.Status)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "module:start:g:a:1.0.0 failed (Recoverable): base", err.Error())
}

func TestTaskParams(t *testing.T) {
	task := NewTask("t", nil)
	task.SetParam("coordinate", "g:a:1.0.0")

	v, ok := task.Param("coordinate")
	require.True(t, ok)
	assert.Equal(t, "g:a:1.0.0", v)
	_, ok = task.Param("missing")
	assert.False(t, ok)

	value, err := task.Run(context.Background(), NewScope())
	assert.NoError(t, err)
	assert.Nil(t, value)
}

func TestTaskGraph(t *testing.T) {
	a := NewTask("a", nil)
	b := NewTask("b", nil)
	twin := NewTask("a", nil)

	tg := NewTaskGraph()
	require.ErrorIs(t, tg.Connect(a, a), ErrSelfDependency)
	require.NoError(t, tg.Connect(a, b))
	require.NoError(t, tg.Connect(a, b))
	tg.Add(twin)

	assert.Equal(t, 3, tg.Len())
	assert.True(t, tg.DependsOn(a, b))
	assert.Equal(t, []*Task{b}, tg.Dependencies(a))
	assert.Equal(t, []*Task{a}, tg.Dependents(b))

	found, ok := tg.Find("a")
	require.True(t, ok)
	assert.Same(t, a, found)

	waves, err := tg.Waves()
	require.NoError(t, err)
	assert.Equal(t, [][]*Task{{b, twin}, {a}}, waves)
}

func TestScope(t *testing.T) {
	root := NewScope()
	root.Set("a", 1)
	child := root.Child()
	child.Set("b", 2)

	v, ok := child.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = root.Get("b")
	assert.False(t, ok)

	calls := 0
	compute := func() any { calls++; return 3 }
	assert.Equal(t, 3, child.ComputeIfAbsent("c", compute))
	assert.Equal(t, 3, child.ComputeIfAbsent("c", compute))
	assert.Equal(t, 1, child.ComputeIfAbsent("a", compute))
	assert.Equal(t, 1, calls)

	assert.Equal(t, []string{"b", "c"}, child.Keys())
}

func TestProcess(t *testing.T) {
	tg := NewTaskGraph()
	p1 := NewProcess("module:lifecycle:change", tg)
	p2 := NewProcess("module:lifecycle:change", tg)

	assert.NotEqual(t, p1.ID(), p2.ID())
	assert.Equal(t, "module:lifecycle:change", p1.Name())
	assert.Same(t, tg, p1.Graph())
	assert.NotSame(t, p1.Scope(), p2.Scope())
}
