package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keel/internal/config"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a rounded table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		valid := make([]string, len(ValidOutputFormats))
		for i, f := range ValidOutputFormats {
			valid[i] = string(f)
		}
		return fmt.Errorf("invalid output format %q, must be one of: %s", format, strings.Join(valid, ", "))
	}
}

// CommandFlags holds the flag values shared by keel's commands.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and log output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// ConfigPath specifies the configuration directory
	ConfigPath string
}

// RegisterCommonFlags registers the shared flags on cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --config-path: Configuration directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	RegisterRuntimeFlags(cmd, flags)
}

// RegisterRuntimeFlags registers only --debug and --config-path, for
// commands that produce no formatted output.
func RegisterRuntimeFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
}

// Validate checks flag values that cobra cannot.
func (f *CommandFlags) Validate() error {
	if f.OutputFormat == "" {
		return nil
	}
	return ValidateOutputFormat(f.OutputFormat)
}

// Format returns the selected output format, defaulting to a table.
func (f *CommandFlags) Format() OutputFormat {
	if f.OutputFormat == "" {
		return OutputFormatTable
	}
	return OutputFormat(f.OutputFormat)
}
