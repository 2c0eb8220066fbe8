package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ncecere/billing_api/internal/timeutil"
)

func newBucketsCommand() *cobra.Command {
	var from, to, bucket string
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Show how a date range is split into report buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := timeutil.ParseInstant(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := timeutil.ParseInstant(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			strategy := timeutil.StrategyFor(bucket)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "# %s\n", strategy.Size())
			for _, r := range timeutil.Partition(start, end, strategy) {
				fmt.Fprintf(w, "%s\t%s\n", r.StartString(), r.EndString())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "range start (YYYY-MM-DD or ISO-8601)")
	cmd.Flags().StringVar(&to, "to", "", "range end (YYYY-MM-DD or ISO-8601)")
	cmd.Flags().StringVar(&bucket, "bucket", "daily", "bucket size: daily, weekly, monthly or yearly")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
