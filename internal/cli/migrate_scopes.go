package cli

import (
	"fmt"

	"tempo-api/internal/migration"
	"tempo-api/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateScopesCommand creates the migrate-scopes command.
func NewMigrateScopesCommand(rootOpts *RootOptions) *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "migrate-scopes",
		Short: "Backfill location/department scoping onto a legacy data store",
		Long: `One-shot backfill that introduces the location/department scoping model:
adds the scope columns where absent, derives per-user defaults from settings,
materializes the user_scopes membership table and rewrites blank rota scope
values. The whole run is one transaction and is safe to re-run.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateScopes(rootOpts, storePath)
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "path to the sqlite data store (defaults to DB_PATH)")

	return cmd
}

func runMigrateScopes(opts *RootOptions, storePath string) error {
	log, err := buildLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	if storePath == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		storePath = cfg.DB.Path
	}

	db, err := migration.OpenStore(storePath)
	if err != nil {
		return err
	}

	if err := migration.NewScopeBackfill(db, log).Run(); err != nil {
		log.Error("Scope backfill failed, all changes rolled back", zap.Error(err))
		return fmt.Errorf("scope backfill: %w", err)
	}

	fmt.Println("Scope backfill completed successfully")
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
