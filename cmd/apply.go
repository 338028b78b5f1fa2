package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"keel/internal/cli"
)

var (
	applyFlags  cli.CommandFlags
	applyAction string
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply COORDINATE...",
	Short: "Run a lifecycle change and report every task outcome",
	Long: `Installs the manifest, then runs a lifecycle change for the given
modules and prints the outcome of each task.

A task that fails recoverably only skips the tasks that depend on it; an
unrecoverable failure stops every later wave.

Examples:
  keel apply acme:http:2.0.0
  keel apply --action stop acme:core:1.0.0

Exit code 5 means the change did not fully succeed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	cli.RegisterCommonFlags(applyCmd, &applyFlags)
	applyCmd.Flags().StringVarP(&applyAction, "action", "a", "start", "Lifecycle action (resolve, start, stop, delete)")
}

func runApply(cmd *cobra.Command, args []string) error {
	batch, err := parseBatch(applyAction, args)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd, &applyFlags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	progress := cli.StartProgress(cmd.ErrOrStderr(), "Applying "+batch.String()+"...", applyFlags.Quiet)
	res, err := application.Apply(commandContext(cmd), batch)
	if res == nil {
		progress.Done(false, "Apply failed")
		return err
	}
	progress.Done(res.Succeeded(), "Applied "+batch.String())

	if perr := cli.NewPrinter(cmd.OutOrStdout(), applyFlags.Format(), applyFlags.NoHeaders).Result(res); perr != nil {
		return perr
	}
	return cli.NewProcessFailedError(res)
}
