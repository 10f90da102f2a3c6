package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/config"
	"github.com/cimillas/interview-slots/internal/lock"
	"github.com/cimillas/interview-slots/internal/notify"
	"github.com/cimillas/interview-slots/internal/ratelimit"
	"github.com/cimillas/interview-slots/internal/storage/memory"
	"github.com/cimillas/interview-slots/internal/storage/postgres"
	transporthttp "github.com/cimillas/interview-slots/internal/transport/http"
	"github.com/cimillas/interview-slots/migrations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, _ := cmd.Flags().GetString("storage")
		return serve(cmd.Context(), storage)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("storage", "postgres", "storage backend: postgres or memory")
	serveCmd.Flags().StringP("port", "p", "", "listen port (overrides PORT)")
	_ = viper.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))
}

// repository is the full storage contract the services need.
type repository interface {
	app.InterviewRepository
	app.SlotRepository
	app.AvailabilityRepository
	app.HoldRepository
	app.BookingRepository
	app.SweepRepository
}

func serve(ctx context.Context, storage string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo, closeRepo, err := openStorage(ctx, cfg, storage, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	clk := clock.NewSystem()
	holdOpts := []app.HoldServiceOption{app.WithHoldTTL(cfg.Hold.TTL), app.WithHoldLogger(logger)}
	bookingOpts := []app.BookingServiceOption{app.WithBookingLogger(logger)}
	trusted, err := cfg.TrustedProxies()
	if err != nil {
		return err
	}
	routerCfg := transporthttp.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins(),
		HoldLimit:      cfg.RateLimit.Limit,
		HoldWindow:     cfg.RateLimit.Window,
		TrustedProxies: trusted,
		Logger:         logger,
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing on row locks only", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()

		locker := lock.NewRedisLock(rdb, "slotlock", cfg.Lock.TTL, cfg.Lock.Wait)
		holdOpts = append(holdOpts, app.WithHoldLocker(locker))
		bookingOpts = append(bookingOpts, app.WithBookingLocker(locker))
		routerCfg.Limiter = ratelimit.NewRedisLimiter(rdb, "ratelimit")
	} else {
		logger.Warn("redis.addr not set, slot lock and rate limit disabled")
	}

	if cfg.AMQP.URL != "" {
		publisher := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		defer func() { _ = publisher.Close() }()
		bookingOpts = append(bookingOpts, app.WithBookingNotifier(publisher))
	}

	slots := app.NewSlotService(repo, clk, app.WithSlotLogger(logger))
	holds := app.NewHoldService(repo, clk, holdOpts...)
	bookings := app.NewBookingService(repo, clk, bookingOpts...)

	services := transporthttp.Services{
		Interviews:   app.NewInterviewService(repo, clk),
		Previewer:    slots,
		Slots:        slots,
		Availability: app.NewAvailabilityService(repo, clk),
		Holds:        holds,
		Bookings:     bookings,
	}
	if pinger, ok := repo.(transporthttp.Pinger); ok {
		services.Store = pinger
	}
	handler := transporthttp.NewRouter(services, routerCfg)

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: handler,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go app.NewSweeper(repo, clk, cfg.Sweep.Interval, logger).Run(sweepCtx)

	logger.Info("api listening", zap.String("addr", server.Addr), zap.String("storage", storage))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	stopSweep()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := bookings.WaitNotifications(shutdownCtx); err != nil {
		logger.Warn("pending booking notifications abandoned", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, kind string, logger *zap.Logger) (repository, func(), error) {
	switch kind {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on exit")
		return memory.New(), func() {}, nil
	case "postgres":
		pool, err := openPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", zap.Strings("applied", applied))
		}
		return postgres.NewStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q (want postgres or memory)", kind)
	}
}
