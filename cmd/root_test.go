package cmd

import (
	"errors"
	"fmt"
	"testing"

	"keel/internal/cli"
	"keel/internal/concurrency"
	"keel/internal/config"
	"keel/internal/coordinate"
	"keel/internal/dependency"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "keel" {
		t.Errorf("Expected Use to be 'keel', got %s", rootCmd.Use)
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	want := map[string]bool{"apply": false, "check": false, "list": false, "plan": false, "serve": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3")
	if GetVersion() != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %s", GetVersion())
	}
}

func TestGetExitCode(t *testing.T) {
	core := coordinate.MustParse("acme:core:1.0.0")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
		{
			name: "unresolved problems",
			err:  &cli.ProblemsFoundError{Unresolved: 2},
			want: ExitCodeUnresolved,
		},
		{
			name: "cycles win over unresolved",
			err:  &cli.ProblemsFoundError{Unresolved: 1, Cycles: 1},
			want: ExitCodeCyclic,
		},
		{
			name: "wrapped cyclic dependency",
			err:  fmt.Errorf("install: %w", &dependency.CyclicDependencyError{Cycles: []dependency.CyclicDependencySet{{Source: core}}}),
			want: ExitCodeCyclic,
		},
		{
			name: "configuration error",
			err:  config.ConfigurationError{FileName: "config.yaml", Message: "bad"},
			want: ExitCodeConfig,
		},
		{
			name: "configuration error collection",
			err:  fmt.Errorf("load: %w", config.ConfigurationErrorCollection{Errors: []config.ConfigurationError{{Message: "bad"}}}),
			want: ExitCodeConfig,
		},
		{
			name: "process failed",
			err:  &cli.ProcessFailedError{ProcessID: "p", Status: concurrency.ProcessFailed, Reason: errors.New("x")},
			want: ExitCodeProcessFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
