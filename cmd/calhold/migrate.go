package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tilford/calhold/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	logger := log.Default()
	loadEnvFile(logger)

	dbURL := envOr("DATABASE_URL", defaultDatabaseURL)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.Apply(connectCtx, pool); err != nil {
		return err
	}
	logger.Printf("migrations applied")
	return nil
}
