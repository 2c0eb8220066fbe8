package main

import (
	"github.com/spf13/cobra"

	"github.com/ncecere/billing_api/internal/config"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "billingctl",
		Short:         "Administer the billing reporting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (defaults to billing.yaml or BILLING_CONFIG_FILE)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading config")

	root.AddCommand(
		newDumpConfigCommand(opts),
		newMigrateCommand(opts),
		newBootstrapCommand(opts),
		newHashPasswordCommand(),
		newBucketsCommand(),
	)
	return root
}
