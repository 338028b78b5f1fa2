package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keel/internal/coordinate"
)

func TestMessageTemplateEngine_Render(t *testing.T) {
	engine := NewMessageTemplateEngine()
	core := coordinate.MustParse("acme:core:1.0.0")

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "module resolved from installed",
			event: Event{Kind: KindModuleResolved, Payload: ModulePayload{Coordinate: core, From: "Installed", To: "Resolved"}},
			want:  "Module acme:core:1.0.0 resolved (was Installed)",
		},
		{
			name:  "module failed with error",
			event: Event{Kind: KindModuleFailed, Payload: ModulePayload{Coordinate: core, Err: errors.New("boom")}},
			want:  "Module acme:core:1.0.0 failed: boom",
		},
		{
			name:  "module failed without error",
			event: Event{Kind: KindModuleFailed, Payload: ModulePayload{Coordinate: core}},
			want:  "Module acme:core:1.0.0 failed",
		},
		{
			name:  "set installation",
			event: Event{Kind: KindModuleSetInstallationCompleted, Payload: ModuleSetPayload{Coordinates: []coordinate.Coordinate{core, core}}},
			want:  "Installed 2 module(s)",
		},
		{
			name:  "process completed",
			event: Event{Kind: KindProcessCompleted, Payload: ProcessPayload{ProcessID: "p1", Name: "start", Status: "Succeeded"}},
			want:  "Process start (p1) finished: Succeeded",
		},
		{
			name:  "task status",
			event: Event{Kind: KindTaskStatusChanged, Payload: TaskPayload{ProcessID: "p1", Task: "module:start:acme:core:1.0.0", Status: "Running"}},
			want:  "Task module:start:acme:core:1.0.0 of process p1 is Running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Render(tt.event))
		})
	}
}

func TestMessageTemplateEngine_Fallback(t *testing.T) {
	engine := NewMessageTemplateEngine()

	msg := engine.Render(Event{Kind: Kind("Custom"), Payload: "x"})
	assert.Equal(t, "Event: Custom x", msg)

	// A payload that lacks the template fields falls back too.
	msg = engine.Render(Event{Kind: KindModuleStarted, Payload: 42})
	assert.Equal(t, "Event: ModuleStarted 42", msg)
}

func TestMessageTemplateEngine_SetTemplate(t *testing.T) {
	engine := NewMessageTemplateEngine()

	require.NoError(t, engine.SetTemplate(KindModuleStarted, "up: {{.Coordinate}}"))
	text, ok := engine.GetTemplate(KindModuleStarted)
	require.True(t, ok)
	assert.Equal(t, "up: {{.Coordinate}}", text)

	msg := engine.Render(Event{Kind: KindModuleStarted, Payload: ModulePayload{Coordinate: coordinate.MustParse("acme:core:1.0.0")}})
	assert.Equal(t, "up: acme:core:1.0.0", msg)

	assert.Error(t, engine.SetTemplate(KindModuleStarted, "{{.Coordinate"))
}

func TestEventErr(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, Event{Payload: TaskPayload{Err: boom}}.Err())
	assert.NoError(t, Event{Payload: ModulePayload{}}.Err())
	assert.NoError(t, Event{Payload: "other"}.Err())
}
