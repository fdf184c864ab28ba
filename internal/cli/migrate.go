package cli

import (
	"context"
	"fmt"

	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/postgres"
	"classroom-quiz-service/internal/logger"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			db := postgres.OpenDB(cfg.Postgres.URL)
			defer db.Close()
			return runMigrations(cmd.Context(), db, cfg)
		},
	}
}

func runMigrations(ctx context.Context, db *bun.DB, cfg config.Config) error {
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	group, err := postgres.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Info().Msg("no new migrations")
		return nil
	}
	log.Info().Str("group", group.String()).Msg("migrations applied")
	return nil
}
