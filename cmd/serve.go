package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"keel/internal/cli"
)

var serveFlags cli.CommandFlags

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the manifest modules until interrupted",
	Long: `Installs, resolves and starts the manifest modules marked start, then
keeps running:

  - metrics are served on telemetry.metricsAddress (/metrics, /healthz)
  - changes to the manifest are applied as they are saved
  - SIGINT or SIGTERM stops every active module, dependents first

Configuration is read from --config-path (default ~/.config/keel):
  - config.yaml (scheduler, logging, kernel and telemetry settings)
  - modules.yaml (the module manifest)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, &serveFlags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	return application.Serve(commandContext(cmd))
}

func init() {
	rootCmd.AddCommand(serveCmd)
	cli.RegisterRuntimeFlags(serveCmd, &serveFlags)
}
