// Package cli holds the admissionfair commands.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "admissionfair",
		Short:         "Check-in desk for a university recruitment fair",
		Long:          `admissionfair records fair attendees, sends them a personalised welcome letter and reports check-ins per day.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newExportCommand(),
		newAnalyticsCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
