package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the tempoctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tempoctl",
		Short: "Operational tooling for the Torre Tempo API",
		Long:  "Out-of-band maintenance commands: data migrations and demo seeding.",
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewMigrateScopesCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
