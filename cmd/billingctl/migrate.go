package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncecere/billing_api/internal/database"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(database.Up), string(database.Down), string(database.Status)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := database.Direction(args[0])
			switch direction {
			case database.Up, database.Down, database.Status:
			default:
				return fmt.Errorf("unknown migration direction %q", args[0])
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := database.Migrate(cmd.Context(), cfg.Database, direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction)
			return nil
		},
	}
}
