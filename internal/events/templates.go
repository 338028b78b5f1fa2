package events

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// MessageTemplateEngine renders human readable messages for events.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	sources   map[Kind]string
	templates map[Kind]*template.Template
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		sources:   make(map[Kind]string),
		templates: make(map[Kind]*template.Template),
	}
	engine.loadDefaultTemplates()
	return engine
}

// loadDefaultTemplates installs one template per known kind.
func (e *MessageTemplateEngine) loadDefaultTemplates() {
	defaults := map[Kind]string{
		// Installation
		KindModuleSetInstallationInitiated: "Installing {{len .Coordinates}} module(s)",
		KindModuleSetInstallationCompleted: "Installed {{len .Coordinates}} module(s)",
		KindModuleSetInstallationFailed:    "Installation of {{len .Coordinates}} module(s) failed{{if .Err}}: {{.Err}}{{end}}",
		KindModuleInstallationInitiated:    "Module {{.Coordinate}} is being installed",
		KindModuleInstallationCompleted:    "Module {{.Coordinate}} installed",
		KindModuleInstallationFailed:       "Module {{.Coordinate}} could not be installed{{if .Err}}: {{.Err}}{{end}}",

		// Lifecycle
		KindModuleResolved: "Module {{.Coordinate}} resolved{{if .From}} (was {{.From}}){{end}}",
		KindModuleStarting: "Module {{.Coordinate}} is starting",
		KindModuleStarted:  "Module {{.Coordinate}} started",
		KindModuleStopping: "Module {{.Coordinate}} is stopping",
		KindModuleStopped:  "Module {{.Coordinate}} stopped",
		KindModuleFailed:   "Module {{.Coordinate}} failed{{if .Err}}: {{.Err}}{{end}}",
		KindModuleRemoved:  "Module {{.Coordinate}} removed",

		// Processes
		KindProcessSubmitted:  "Process {{.Name}} ({{.ProcessID}}) submitted with {{.Tasks}} task(s)",
		KindProcessCompleted:  "Process {{.Name}} ({{.ProcessID}}) finished: {{.Status}}{{if .Err}}: {{.Err}}{{end}}",
		KindTaskStatusChanged: "Task {{.Task}} of process {{.ProcessID}} is {{.Status}}{{if .Err}}: {{.Err}}{{end}}",
	}
	for kind, text := range defaults {
		if err := e.SetTemplate(kind, text); err != nil {
			panic(err)
		}
	}
}

// Render generates the message for ev. Events without a template, or whose
// payload does not fit it, fall back to the kind and the raw payload.
func (e *MessageTemplateEngine) Render(ev Event) string {
	e.mu.RLock()
	tmpl, exists := e.templates[ev.Kind]
	e.mu.RUnlock()
	if !exists {
		return fallback(ev)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, ev.Payload); err != nil {
		return fallback(ev)
	}
	return sb.String()
}

// SetTemplate replaces the message template for kind. The template is
// executed against the event payload.
func (e *MessageTemplateEngine) SetTemplate(kind Kind, text string) error {
	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("invalid template for %s: %w", kind, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[kind] = text
	e.templates[kind] = tmpl
	return nil
}

// GetTemplate returns the template text for kind.
func (e *MessageTemplateEngine) GetTemplate(kind Kind) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	text, exists := e.sources[kind]
	return text, exists
}

func fallback(ev Event) string {
	return fmt.Sprintf("Event: %s %+v", ev.Kind, ev.Payload)
}
