package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"keel/internal/cli"
)

var (
	planFlags  cli.CommandFlags
	planAction string
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan COORDINATE...",
	Short: "Show the waves a lifecycle change would run in",
	Long: `Prepares a lifecycle change for the given modules and prints its
task graph wave by wave without running it. Tasks in one wave run
concurrently; a wave starts once the previous one has finished.

Coordinates are written group:name:version and must name installed modules.

Examples:
  keel plan acme:http:2.0.0
  keel plan --action stop acme:core:1.0.0
  keel plan --action delete acme:admin:1.0.0 acme:http:2.0.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	cli.RegisterCommonFlags(planCmd, &planFlags)
	planCmd.Flags().StringVarP(&planAction, "action", "a", "start", "Lifecycle action (resolve, start, stop, delete)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	batch, err := parseBatch(planAction, args)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, &planFlags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	group, err := application.Plan(commandContext(cmd), batch)
	if err != nil {
		return err
	}
	waves, err := group.Waves()
	if err != nil {
		return err
	}
	return cli.NewPrinter(cmd.OutOrStdout(), planFlags.Format(), planFlags.NoHeaders).Plan(group.Process().Name(), waves)
}
