package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keel/internal/concurrency"
)

func TestProblemsFoundErrorMatchesWrapped(t *testing.T) {
	err := fmt.Errorf("check: %w", &ProblemsFoundError{Unresolved: 1, Cycles: 2})
	assert.True(t, errors.Is(err, &ProblemsFoundError{}))
	assert.Contains(t, err.Error(), "1 unresolved module(s) and 2 cycle(s)")
}

func TestNewProcessFailedError(t *testing.T) {
	assert.NoError(t, NewProcessFailedError(nil))

	res, _ := runProcess(t)
	err := NewProcessFailedError(res)
	require.Error(t, err)

	var pf *ProcessFailedError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, concurrency.ProcessPartiallyFailed, pf.Status)
	assert.ErrorContains(t, err, "activator refused")

	ok := concurrency.NewTaskGraph()
	ok.Add(concurrency.NewTask("noop", func(context.Context, *concurrency.Scope) (concurrency.Value, error) { return nil, nil }))
	done := concurrency.NewScheduler(concurrency.Config{}).Run(context.Background(), concurrency.NewProcess("ok", ok))
	assert.NoError(t, NewProcessFailedError(done))
}
