package kernel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/events"
	"keel/internal/module"
	"keel/internal/orchestrator"
)

type trackedCloser struct {
	closed atomic.Int32
}

func (c *trackedCloser) Close() error {
	c.closed.Add(1)
	return nil
}

// mockActivator records start/stop calls and fails the configured modules.
type mockActivator struct {
	mu        sync.Mutex
	started   []string
	stopped   []string
	failStart map[string]error
}

func (a *mockActivator) Supports(m *module.Module) bool { return m.Type == module.TypePlugin }

func (a *mockActivator) Start(_ context.Context, m *module.Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failStart[m.Coordinate.String()]; err != nil {
		return err
	}
	a.started = append(a.started, m.Coordinate.Name)
	return nil
}

func (a *mockActivator) Stop(_ context.Context, m *module.Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = append(a.stopped, m.Coordinate.Name)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	mgr, err := NewManager(Config{
		Scheduler:  concurrency.NewScheduler(concurrency.Config{MaxWorkers: 4}),
		Registerer: reg,
	})
	require.NoError(t, err)
	return mgr, reg
}

func plugin(c string, res *trackedCloser, deps ...string) *module.Module {
	coords := make([]coordinate.Coordinate, len(deps))
	for i, d := range deps {
		coords[i] = coordinate.MustParse(d)
	}
	if res == nil {
		return module.New(coordinate.MustParse(c), module.TypePlugin, nil, coords...)
	}
	return module.New(coordinate.MustParse(c), module.TypePlugin, res, coords...)
}

func stateOf(t *testing.T, mgr *Manager, c string) module.State {
	t.Helper()
	s, ok := mgr.Module(coordinate.MustParse(c))
	require.True(t, ok, "module %s not installed", c)
	return s.State
}

func TestInstallAndResolveLibrary(t *testing.T) {
	mgr, reg := newTestManager(t)
	ctx := context.Background()

	unsatisfied, err := mgr.Install(ctx, plugin("io.keel:kernel-lib:1.0.0", nil))
	require.NoError(t, err)
	assert.Empty(t, unsatisfied)
	assert.Equal(t, module.StateInstalled, stateOf(t, mgr, "io.keel:kernel-lib:1.0.0"))

	require.NoError(t, mgr.Resolve(ctx, coordinate.MustParse("io.keel:kernel-lib:1.0.0")))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "io.keel:kernel-lib:1.0.0"))

	modules, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, modules)
}

func TestResolveWaitsForDependency(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()
	a := coordinate.MustParse("io.keel:plugin-a:1.0.0")
	b := coordinate.MustParse("io.keel:plugin-b:1.0.0")

	unsatisfied, err := mgr.Install(ctx, plugin(a.String(), nil, b.String()))
	require.NoError(t, err)
	require.Len(t, unsatisfied, 1)

	err = mgr.Resolve(ctx, a)
	require.Error(t, err)
	assert.True(t, dependency.IsUnresolvedDependency(err))
	assert.Equal(t, module.StateFailed, stateOf(t, mgr, a.String()))

	_, err = mgr.Install(ctx, plugin(b.String(), nil))
	require.NoError(t, err)
	require.NoError(t, mgr.Resolve(ctx, b))
	require.NoError(t, mgr.Resolve(ctx, a))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, a.String()))

	status, _ := mgr.Module(a)
	assert.Equal(t, []coordinate.Coordinate{b}, status.Dependencies)
}

func TestResolveUnknownModule(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := mgr.Resolve(context.Background(), coordinate.MustParse("g:missing:1.0.0"))
	assert.ErrorIs(t, err, dependency.ErrNotFound)
}

func TestInstallRejectsCycles(t *testing.T) {
	mgr, _ := newTestManager(t)
	ra, rb, rc, rd := &trackedCloser{}, &trackedCloser{}, &trackedCloser{}, &trackedCloser{}

	_, err := mgr.Install(context.Background(),
		plugin("g:a:1.0.0", ra, "g:b:1.0.0"),
		plugin("g:b:1.0.0", rb, "g:a:1.0.0"),
		plugin("g:c:1.0.0", rc, "g:a:1.0.0"),
		plugin("g:d:1.0.0", rd),
	)
	require.Error(t, err)
	assert.True(t, dependency.IsCyclicDependency(err))

	// Every module of the refused batch gives its resource back, including
	// those outside the cycle.
	for name, r := range map[string]*trackedCloser{"a": ra, "b": rb, "c": rc, "d": rd} {
		assert.Equal(t, int32(1), r.closed.Load(), name)
	}
	assert.Empty(t, mgr.Modules())
}

func TestInstallRejectedCycleKeepsInstalledModules(t *testing.T) {
	mgr, _ := newTestManager(t)
	installed := &trackedCloser{}
	a := plugin("g:a:1.0.0", installed, "g:b:1.0.0")

	_, err := mgr.Install(context.Background(), a)
	require.NoError(t, err)

	rb := &trackedCloser{}
	_, err = mgr.Install(context.Background(), a, plugin("g:b:1.0.0", rb, "g:a:1.0.0"))
	require.Error(t, err)
	assert.True(t, dependency.IsCyclicDependency(err))

	assert.Zero(t, installed.closed.Load())
	assert.Equal(t, int32(1), rb.closed.Load())
	assert.Len(t, mgr.Modules(), 1)
}

func TestInstallSetRejectsUnresolved(t *testing.T) {
	mgr, _ := newTestManager(t)
	ra, rb := &trackedCloser{}, &trackedCloser{}

	err := mgr.InstallSet(context.Background(), []*module.Module{
		plugin("g:a:1.0.0", ra, "g:missing:1.0.0"),
		plugin("g:b:1.0.0", rb),
	})
	var unresolved *dependency.UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "unresolved dependencies detected", unresolved.Message)
	require.Len(t, unresolved.Sets, 1)

	assert.Equal(t, int32(1), ra.closed.Load())
	assert.Equal(t, int32(1), rb.closed.Load())
	assert.Empty(t, mgr.Modules())
}

func TestInstallSetResolvesBatch(t *testing.T) {
	mgr, _ := newTestManager(t)

	require.NoError(t, mgr.InstallSet(context.Background(), []*module.Module{
		plugin("g:a:1.0.0", nil, "g:b:1.0.0"),
		plugin("g:b:1.0.0", nil),
	}))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:a:1.0.0"))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:b:1.0.0"))
	assert.True(t, mgr.Check().OK())
}

func TestInstallDuplicateReleasesNewcomer(t *testing.T) {
	mgr, _ := newTestManager(t)
	first, second := &trackedCloser{}, &trackedCloser{}

	_, err := mgr.Install(context.Background(), plugin("g:a:1.0.0", first))
	require.NoError(t, err)
	_, err = mgr.Install(context.Background(), plugin("g:a:1.0.0", second))
	require.NoError(t, err)

	assert.Zero(t, first.closed.Load())
	assert.Equal(t, int32(1), second.closed.Load())
	assert.Len(t, mgr.Modules(), 1)
}

func TestInstallDuplicateInBatchReleasesLater(t *testing.T) {
	mgr, _ := newTestManager(t)
	first, second := &trackedCloser{}, &trackedCloser{}

	unsatisfied, err := mgr.Install(context.Background(),
		plugin("g:a:1.0.0", first),
		plugin("g:a:1.0.0", second),
	)
	require.NoError(t, err)
	assert.Empty(t, unsatisfied)

	assert.Zero(t, first.closed.Load())
	assert.Equal(t, int32(1), second.closed.Load())
	assert.Len(t, mgr.Modules(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(mgr.metrics.modules.WithLabelValues(string(module.StateInstalled))))
}

func TestResolveAcceptsPresentButUnresolvedDependency(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Install(ctx,
		plugin("g:a:1.0.0", nil, "g:b:1.0.0"),
		plugin("g:b:1.0.0", nil),
	)
	require.NoError(t, err)

	require.NoError(t, mgr.Resolve(ctx, coordinate.MustParse("g:a:1.0.0")))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:a:1.0.0"))
	assert.Equal(t, module.StateInstalled, stateOf(t, mgr, "g:b:1.0.0"))
}

func installChain(t *testing.T, mgr *Manager) {
	t.Helper()
	require.NoError(t, mgr.InstallSet(context.Background(), []*module.Module{
		plugin("g:a:1.0.0", &trackedCloser{}, "g:b:1.0.0"),
		plugin("g:b:1.0.0", &trackedCloser{}, "g:c:1.0.0"),
		plugin("g:c:1.0.0", &trackedCloser{}),
	}))
}

func TestApplyStartStopDelete(t *testing.T) {
	mgr, reg := newTestManager(t)
	activator := &mockActivator{}
	mgr.Registry().Register(CapabilityActivator, activator, 0)
	installChain(t, mgr)
	ctx := context.Background()

	result, err := mgr.Apply(ctx, orchestrator.NewBatch(module.ActionActivate, coordinate.MustParse("g:a:1.0.0")))
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, []string{"c", "b", "a"}, activator.started)
	assert.Equal(t, 3.0, testutil.ToFloat64(mgr.metrics.modules.WithLabelValues(string(module.StateActive))))

	result, err = mgr.Apply(ctx, orchestrator.NewBatch(module.ActionStop, coordinate.MustParse("g:c:1.0.0")))
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, []string{"a", "b", "c"}, activator.stopped)
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:c:1.0.0"))

	result, err = mgr.Apply(ctx, orchestrator.NewBatch(module.ActionDelete,
		coordinate.MustParse("g:a:1.0.0"), coordinate.MustParse("g:b:1.0.0"), coordinate.MustParse("g:c:1.0.0")))
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Empty(t, mgr.Modules())
	assert.Zero(t, testutil.ToFloat64(mgr.metrics.modules.WithLabelValues(string(module.StateResolved))))

	count, err := testutil.GatherAndCount(reg, "keel_module_transitions_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestApplyRemoveWithDependentsIsRecoverable(t *testing.T) {
	mgr, _ := newTestManager(t)
	installChain(t, mgr)

	result, err := mgr.Apply(context.Background(), orchestrator.NewBatch(module.ActionDelete, coordinate.MustParse("g:c:1.0.0")))
	require.Error(t, err)
	assert.ErrorIs(t, err, dependency.ErrHasDependents)
	assert.Equal(t, concurrency.ProcessPartiallyFailed, result.Status)
	assert.Len(t, mgr.Modules(), 3)
}

func TestApplyActivatorFailureSkipsDependents(t *testing.T) {
	mgr, _ := newTestManager(t)
	activator := &mockActivator{failStart: map[string]error{"g:b:1.0.0": errors.New("no entry point")}}
	mgr.Registry().Register(CapabilityActivator, activator, 0)
	installChain(t, mgr)

	result, err := mgr.Apply(context.Background(), orchestrator.NewBatch(module.ActionActivate, coordinate.MustParse("g:a:1.0.0")))
	require.Error(t, err)
	assert.Equal(t, concurrency.ProcessPartiallyFailed, result.Status)
	assert.Equal(t, []string{"c"}, activator.started)
	assert.Equal(t, module.StateActive, stateOf(t, mgr, "g:c:1.0.0"))
	assert.Equal(t, module.StateFailed, stateOf(t, mgr, "g:b:1.0.0"))
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:a:1.0.0"))

	stopped, err := mgr.StopAll(context.Background())
	require.NoError(t, err)
	assert.True(t, stopped.Succeeded())
	assert.Equal(t, module.StateResolved, stateOf(t, mgr, "g:c:1.0.0"))
}

func TestCheckReportsProblems(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.Install(context.Background(), plugin("g:a:1.0.0", nil, "g:gone:1.0.0"))
	require.NoError(t, err)

	report := mgr.Check()
	assert.False(t, report.OK())
	require.Len(t, report.Unresolved, 1)
	assert.Empty(t, report.Cycles)
}

func TestManagerDispatchesLifecycleEvents(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe(64)
	mgr, err := NewManager(Config{Sink: bus})
	require.NoError(t, err)

	require.NoError(t, mgr.InstallSet(context.Background(), []*module.Module{plugin("g:a:1.0.0", nil)}))
	bus.Close()

	var kinds []events.Kind
	for ev := range ch {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []events.Kind{
		events.KindModuleSetInstallationInitiated,
		events.KindModuleInstallationInitiated,
		events.KindModuleInstallationCompleted,
		events.KindModuleResolved,
		events.KindModuleSetInstallationCompleted,
	}, kinds)
}

func TestManagersShareRegistererCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewManager(Config{Registerer: reg})
	require.NoError(t, err)
	_, err = NewManager(Config{Registerer: reg})
	require.NoError(t, err)
}

func TestOpenUsesResourceProviders(t *testing.T) {
	root := t.TempDir()
	c := coordinate.MustParse("io.keel:plugin-a:1.0.0")
	dir := DirectoryResources{Root: root}
	require.NoError(t, os.MkdirAll(dir.Path(c), 0o755))
	assert.Equal(t, filepath.Join(root, "io.keel", "plugin-a", "1.0.0"), dir.Path(c))

	mgr, _ := newTestManager(t)
	m, err := mgr.Open(c, module.TypePlugin)
	require.NoError(t, err)
	assert.Nil(t, m.Resource())

	mgr.Registry().Register(CapabilityResources, dir, 0)
	m, err = mgr.Open(c, module.TypePlugin)
	require.NoError(t, err)
	require.NotNil(t, m.Resource())
	require.NoError(t, m.Release())

	_, err = mgr.Open(coordinate.MustParse("io.keel:missing:1.0.0"), module.TypePlugin)
	assert.Error(t, err)
}
