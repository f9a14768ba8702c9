package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"admissionfair/config"
)

func newAnalyticsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print check-ins per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, config.NewLoggerTo(os.Stderr, cfg))
			if err != nil {
				return err
			}
			defer a.close()

			counts, err := a.service.DailyCounts(cmd.Context())
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no check-ins yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tCHECK-INS")
			total := 0
			for _, c := range counts {
				fmt.Fprintf(tw, "%s\t%d\n", c.Date, c.Count)
				total += c.Count
			}
			fmt.Fprintf(tw, "TOTAL\t%d\n", total)
			return tw.Flush()
		},
	}
}
