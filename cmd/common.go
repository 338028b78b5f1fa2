package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"keel/internal/app"
	"keel/internal/cli"
	"keel/internal/coordinate"
	"keel/internal/module"
	"keel/internal/orchestrator"
)

// newApplication bootstraps keel for a one-shot command. Quiet commands
// discard log output so that only the rendered result is printed.
func newApplication(cmd *cobra.Command, flags *cli.CommandFlags) (*app.Application, error) {
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	cfg := app.NewConfig(flags.Debug, flags.ConfigPath)
	cfg.Silent = flags.Quiet
	cfg.LogOutput = cmd.ErrOrStderr()

	application, err := app.NewApplication(commandContext(cmd), cfg, rootCmd.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseBatch turns an action name and coordinate arguments into a batch.
func parseBatch(action string, args []string) (orchestrator.Batch, error) {
	a, err := module.ParseAction(action)
	if err != nil {
		return nil, err
	}
	coords := make([]coordinate.Coordinate, 0, len(args))
	for _, arg := range args {
		c, err := coordinate.Parse(arg)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	batch := orchestrator.NewBatch(a, coords...)
	if _, err := batch.Family(); err != nil {
		return nil, err
	}
	return batch, nil
}
