package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admissionfair/config"
	"admissionfair/internal/repository"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the attendees schema if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLoggerTo(os.Stderr, cfg)
			store, err := repository.Open(cmd.Context(), cfg.DBUrl, nil)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema up to date", "driver", store.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
