package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/cli"
	"keel/internal/config"
	"keel/internal/dependency"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeUnresolved indicates unresolved dependencies.
	ExitCodeUnresolved = 2
	// ExitCodeCyclic indicates a dependency cycle.
	ExitCodeCyclic = 3
	// ExitCodeConfig indicates an invalid config.yaml or manifest.
	ExitCodeConfig = 4
	// ExitCodeProcessFailed indicates that a lifecycle process did not succeed.
	ExitCodeProcessFailed = 5
)

// rootCmd represents the base command for the keel application.
var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Install modules and drive their lifecycle in dependency order",
	Long: `keel installs versioned modules from a manifest, resolves their
dependencies and starts or stops them in waves, so that a module only runs
once everything it depends on is running.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "keel version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var problems *cli.ProblemsFoundError
	if errors.As(err, &problems) {
		if problems.Cycles > 0 {
			return ExitCodeCyclic
		}
		return ExitCodeUnresolved
	}

	var cyclic *dependency.CyclicDependencyError
	if errors.As(err, &cyclic) {
		return ExitCodeCyclic
	}

	var unresolved *dependency.UnresolvedDependencyError
	if errors.As(err, &unresolved) {
		return ExitCodeUnresolved
	}

	var cfgErr config.ConfigurationError
	var cfgErrs config.ConfigurationErrorCollection
	if errors.As(err, &cfgErr) || errors.As(err, &cfgErrs) {
		return ExitCodeConfig
	}

	var processFailed *cli.ProcessFailedError
	if errors.As(err, &processFailed) {
		return ExitCodeProcessFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
