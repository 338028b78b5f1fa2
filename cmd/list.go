package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"keel/internal/cli"
)

var listFlags cli.CommandFlags

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List manifest modules and the state they resolve to",
	Long: `Installs and resolves the manifest modules and prints each module
with its type, lifecycle state and dependencies. Nothing is started.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	cli.RegisterCommonFlags(listCmd, &listFlags)
}

func runList(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, &listFlags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	mods, err := application.List(commandContext(cmd))
	if err != nil {
		return err
	}
	return cli.NewPrinter(cmd.OutOrStdout(), listFlags.Format(), listFlags.NoHeaders).Modules(mods)
}
