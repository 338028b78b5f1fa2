package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"keel/internal/cli"
)

var checkFlags cli.CommandFlags

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the manifest for unresolved dependencies and cycles",
	Long: `Installs every module of the manifest into a fresh kernel without
resolving or starting anything, and reports:

  - modules whose dependencies are not satisfied by any manifest entry
  - groups of modules that depend on each other in a cycle

Exit codes: 0 when the manifest is consistent, 2 for unresolved
dependencies, 3 for cycles, 4 for an invalid configuration.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	cli.RegisterCommonFlags(checkCmd, &checkFlags)
}

func runCheck(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, &checkFlags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	report, err := application.Check(commandContext(cmd))
	if err != nil {
		return err
	}

	printer := cli.NewPrinter(cmd.OutOrStdout(), checkFlags.Format(), checkFlags.NoHeaders)
	if err := printer.Report(report); err != nil {
		return err
	}
	if !report.OK() {
		return &cli.ProblemsFoundError{Unresolved: len(report.Unresolved), Cycles: len(report.Cycles)}
	}
	return nil
}
