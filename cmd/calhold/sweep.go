package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tilford/calhold/internal/app"
	"github.com/tilford/calhold/internal/clock"
	"github.com/tilford/calhold/internal/storage/postgres"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire due holds once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context())
		},
	}
}

func runSweep(ctx context.Context) error {
	logger := log.Default()
	loadEnvFile(logger)

	dbURL := envOr("DATABASE_URL", defaultDatabaseURL)

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(connectCtx); err != nil {
		return err
	}

	holdRepo := postgres.NewHoldRepository(pool)
	holdSvc := app.NewHoldService(holdRepo, nil, clock.NewSystem())
	sweeper := app.NewSweeper(holdSvc, clock.NewSystem(), logger)

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	logger.Printf("expired %d hold(s)", n)
	return nil
}
