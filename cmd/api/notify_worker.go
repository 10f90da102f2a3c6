package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/notify"
)

var notifyWorkerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Consume booking confirmations from RabbitMQ",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if cfg.AMQP.URL == "" {
			return errors.New("amqp.url (RABBITMQ_URL) is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("notify worker started", zap.String("queue", cfg.AMQP.Queue))
		consumer := notify.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, notify.LogHandler(logger), logger)
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("notify worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyWorkerCmd)
}
