package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/kernel"
	"keel/internal/module"
	"keel/pkg/cellfmt"
)

// Printer writes command output in the selected format.
type Printer struct {
	out       io.Writer
	format    OutputFormat
	noHeaders bool
}

// NewPrinter returns a printer writing to out.
func NewPrinter(out io.Writer, format OutputFormat, noHeaders bool) *Printer {
	return &Printer{out: out, format: format, noHeaders: noHeaders}
}

type moduleView struct {
	Coordinate   string   `json:"coordinate" yaml:"coordinate"`
	Type         string   `json:"type" yaml:"type"`
	State        string   `json:"state" yaml:"state"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty" yaml:"dependents,omitempty"`
}

type reportView struct {
	OK         bool     `json:"ok" yaml:"ok"`
	Unresolved []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Cycles     []string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
}

type planView struct {
	Process string     `json:"process" yaml:"process"`
	Waves   [][]string `json:"waves" yaml:"waves"`
}

type taskView struct {
	Name     string `json:"name" yaml:"name"`
	Wave     int    `json:"wave" yaml:"wave"`
	Outcome  string `json:"outcome" yaml:"outcome"`
	Duration string `json:"duration" yaml:"duration"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

type resultView struct {
	ProcessID string     `json:"processId" yaml:"processId"`
	Name      string     `json:"name" yaml:"name"`
	Status    string     `json:"status" yaml:"status"`
	Duration  string     `json:"duration" yaml:"duration"`
	Cause     string     `json:"cause,omitempty" yaml:"cause,omitempty"`
	Tasks     []taskView `json:"tasks" yaml:"tasks"`
}

// Modules renders installed module statuses.
func (p *Printer) Modules(mods []kernel.ModuleStatus) error {
	views := make([]moduleView, len(mods))
	for i, m := range mods {
		views[i] = moduleView{
			Coordinate:   m.Coordinate.String(),
			Type:         string(m.Type),
			State:        string(m.State),
			Dependencies: coordinateStrings(m.Dependencies),
			Dependents:   coordinateStrings(m.Dependents),
		}
	}
	if p.format != OutputFormatTable {
		return p.encode(views)
	}
	if len(views) == 0 {
		p.empty("No modules installed")
		return nil
	}

	t := p.createTable("COORDINATE", "TYPE", "STATE", "DEPENDENCIES")
	for i, v := range views {
		t.AppendRow(table.Row{v.Coordinate, v.Type, colorState(mods[i].State), cellfmt.List(v.Dependencies, cellfmt.DefaultMaxLen)})
	}
	t.Render()
	return nil
}

// Report renders a consistency report.
func (p *Printer) Report(r kernel.Report) error {
	view := reportView{OK: r.OK()}
	for _, s := range r.Unresolved {
		view.Unresolved = append(view.Unresolved, s.String())
	}
	for _, c := range r.Cycles {
		view.Cycles = append(view.Cycles, c.String())
	}
	if p.format != OutputFormatTable {
		return p.encode(view)
	}
	if view.OK {
		fmt.Fprintln(p.out, FormatSuccess("No unresolved dependencies or cycles"))
		return nil
	}

	t := p.createTable("PROBLEM", "DETAIL")
	for _, u := range view.Unresolved {
		t.AppendRow(table.Row{text.FgYellow.Sprint("unresolved"), u})
	}
	for _, c := range view.Cycles {
		t.AppendRow(table.Row{text.FgRed.Sprint("cycle"), c})
	}
	t.Render()
	return nil
}

// Plan renders the waves of a prepared process.
func (p *Printer) Plan(processName string, waves [][]*concurrency.Task) error {
	view := planView{Process: processName, Waves: make([][]string, len(waves))}
	for i, wave := range waves {
		for _, task := range wave {
			view.Waves[i] = append(view.Waves[i], task.Name())
		}
	}
	if p.format != OutputFormatTable {
		return p.encode(view)
	}
	if len(waves) == 0 {
		p.empty("Nothing to do")
		return nil
	}

	t := p.createTable("WAVE", "TASK")
	for i, wave := range view.Waves {
		for _, name := range wave {
			t.AppendRow(table.Row{i, name})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

// Result renders the outcome of a process run.
func (p *Printer) Result(r *concurrency.ProcessResult) error {
	view := resultView{
		ProcessID: r.ProcessID,
		Name:      r.Name,
		Status:    string(r.Status),
		Duration:  r.Duration.Round(time.Millisecond).String(),
	}
	if r.Cause != nil {
		view.Cause = r.Cause.Error()
	}
	results := r.Results()
	for _, tr := range results {
		tv := taskView{
			Name:     tr.Task.Name(),
			Wave:     tr.Wave,
			Outcome:  string(tr.Outcome),
			Duration: tr.Duration.Round(time.Millisecond).String(),
		}
		if tr.Err != nil {
			tv.Error = tr.Err.Error()
		}
		view.Tasks = append(view.Tasks, tv)
	}
	if p.format != OutputFormatTable {
		return p.encode(view)
	}

	t := p.createTable("WAVE", "TASK", "OUTCOME", "DURATION", "ERROR")
	for i, tv := range view.Tasks {
		t.AppendRow(table.Row{tv.Wave, tv.Name, colorOutcome(results[i].Outcome), tv.Duration, cellfmt.Cell(tv.Error, cellfmt.DefaultMaxLen)})
	}
	t.Render()

	summary := fmt.Sprintf("Process %s finished %s in %s", view.ProcessID, view.Status, view.Duration)
	if r.Succeeded() {
		fmt.Fprintln(p.out, FormatSuccess(summary))
	} else {
		fmt.Fprintln(p.out, FormatWarning(summary))
	}
	return nil
}

// createTable creates a new table with standard styling
func (p *Printer) createTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	if !p.noHeaders {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			row[i] = text.FgHiCyan.Sprint(h)
		}
		t.AppendHeader(row)
	}
	return t
}

func (p *Printer) empty(message string) {
	fmt.Fprintf(p.out, "%s\n", text.FgYellow.Sprint(message))
}

func (p *Printer) encode(v any) error {
	switch p.format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return ValidateOutputFormat(string(p.format))
	}
}

func colorState(s module.State) string {
	switch s {
	case module.StateActive:
		return text.FgGreen.Sprint(s)
	case module.StateFailed:
		return text.FgRed.Sprint(s)
	case module.StateStarting, module.StateStopping:
		return text.FgYellow.Sprint(s)
	default:
		return string(s)
	}
}

func colorOutcome(o concurrency.Outcome) string {
	switch o {
	case concurrency.OutcomeSucceeded:
		return text.FgGreen.Sprint(o)
	case concurrency.OutcomeFailed:
		return text.FgRed.Sprint(o)
	case concurrency.OutcomeSkipped, concurrency.OutcomeCancelled:
		return text.FgYellow.Sprint(o)
	default:
		return string(o)
	}
}

func coordinateStrings(cs []coordinate.Coordinate) []string {
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("%s %s", text.FgGreen.Sprint("✓"), msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("%s %s", text.FgYellow.Sprint("⚠"), msg)
}
