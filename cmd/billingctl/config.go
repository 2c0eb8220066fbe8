package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const redacted = "********"

func newDumpConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dumpconfig",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cfg.Session.JWTSecret = redacted
			for i := range cfg.Bootstrap.Users {
				cfg.Bootstrap.Users[i].Password = redacted
			}
			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
