package main

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/ncecere/billing_api/internal/app"
	"github.com/ncecere/billing_api/internal/database"
	"github.com/ncecere/billing_api/internal/db"
)

func newBootstrapCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed users, projects and role grants from the bootstrap config section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			queries := db.New(pool)
			err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
				return app.Bootstrap(ctx, queries.WithTx(tx), cfg.Bootstrap)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bootstrapped %d users, %d projects, %d grants\n",
				len(cfg.Bootstrap.Users), len(cfg.Bootstrap.Projects), len(cfg.Bootstrap.Grants))
			return nil
		},
	}
}
