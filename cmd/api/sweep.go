package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/storage/postgres"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete every expired hold once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		pool, err := openPool(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sweeper := app.NewSweeper(postgres.NewStore(pool), clock.NewSystem(), 0, logger)
		removed, err := sweeper.SweepOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired holds\n", removed)
		logger.Debug("sweep finished", zap.Int("removed", removed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
