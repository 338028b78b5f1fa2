package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/kernel"
	"keel/internal/module"
)

func init() {
	text.DisableColors()
}

var testModules = []kernel.ModuleStatus{
	{
		Coordinate: coordinate.MustParse("acme:core:1.0.0"),
		Type:       module.TypeLibrary,
		State:      module.StateActive,
		Dependents: []coordinate.Coordinate{coordinate.MustParse("acme:http:2.0.0")},
	},
	{
		Coordinate:   coordinate.MustParse("acme:http:2.0.0"),
		Type:         module.TypePlugin,
		State:        module.StateFailed,
		Dependencies: []coordinate.Coordinate{coordinate.MustParse("acme:core:1.0.0")},
	},
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range ValidOutputFormats {
		assert.NoError(t, ValidateOutputFormat(string(f)))
	}
	err := ValidateOutputFormat("wide")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table, json, yaml")
}

func TestModulesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, false).Modules(testModules))

	out := buf.String()
	assert.Contains(t, out, "COORDINATE")
	assert.Contains(t, out, "acme:core:1.0.0")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "plugin")
}

func TestModulesTableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, true).Modules(testModules))
	assert.NotContains(t, buf.String(), "COORDINATE")
}

func TestModulesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatJSON, false).Modules(testModules))

	var views []moduleView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Active", views[0].State)
	assert.Equal(t, []string{"acme:http:2.0.0"}, views[0].Dependents)
	assert.Equal(t, []string{"acme:core:1.0.0"}, views[1].Dependencies)
}

func TestModulesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, false).Modules(nil))
	assert.Contains(t, buf.String(), "No modules installed")
}

func TestReportYAML(t *testing.T) {
	report := kernel.Report{
		Unresolved: []dependency.UnsatisfiedDependencySet{{
			Source:  coordinate.MustParse("acme:http:2.0.0"),
			Missing: []coordinate.Coordinate{coordinate.MustParse("acme:core:^1.0.0")},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatYAML, false).Report(report))

	var view reportView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &view))
	assert.False(t, view.OK)
	require.Len(t, view.Unresolved, 1)
	assert.Contains(t, view.Unresolved[0], "acme:http:2.0.0 depends on")
}

func TestReportOK(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, false).Report(kernel.Report{}))
	assert.Contains(t, buf.String(), "No unresolved dependencies or cycles")
}

func runProcess(t *testing.T) (*concurrency.ProcessResult, [][]*concurrency.Task) {
	t.Helper()
	ok := concurrency.NewTask("lib", func(context.Context, *concurrency.Scope) (concurrency.Value, error) {
		return nil, nil
	})
	bad := concurrency.NewTask("plugin", func(context.Context, *concurrency.Scope) (concurrency.Value, error) {
		return nil, concurrency.Recoverable(errors.New("activator refused"))
	})
	tg := concurrency.NewTaskGraph()
	require.NoError(t, tg.Connect(bad, ok))

	waves, err := tg.Waves()
	require.NoError(t, err)

	s := concurrency.NewScheduler(concurrency.Config{MaxWorkers: 1})
	return s.Run(context.Background(), concurrency.NewProcess("test", tg)), waves
}

func TestPlanTable(t *testing.T) {
	_, waves := runProcess(t)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatJSON, false).Plan("test", waves))

	var view planView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, [][]string{{"lib"}, {"plugin"}}, view.Waves)
}

func TestResultTable(t *testing.T) {
	res, _ := runProcess(t)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, OutputFormatTable, false).Result(res))

	out := buf.String()
	assert.Contains(t, out, "activator refused")
	assert.Contains(t, out, "Succeeded")
	assert.Contains(t, out, "finished PartiallyFailed")
}

func TestProgressQuietIsNoop(t *testing.T) {
	var buf bytes.Buffer
	p := StartProgress(&buf, "working", true)
	p.Done(true, "done")
	assert.Empty(t, buf.String())
}

func TestProgressPrintsFinalMessage(t *testing.T) {
	var buf bytes.Buffer
	p := StartProgress(&buf, "working", false)
	p.Done(false, "apply failed")
	assert.Contains(t, buf.String(), "apply failed")
}
