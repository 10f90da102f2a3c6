package app

import (
	"context"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"go.uber.org/zap"
)

type SweepRepository interface {
	DeleteAllExpiredHolds(ctx context.Context, now time.Time) (int, error)
}

// Sweeper deletes expired holds in the background. Correctness does not
// depend on it: every read filters on expires_at and hold creation sweeps
// its own interview first.
type Sweeper struct {
	repo     SweepRepository
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(repo SweepRepository, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		repo:     repo,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// SweepOnce removes every hold whose expiry is at or before now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAllExpiredHolds(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired holds swept", zap.Int("count", n))
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done. A non-positive interval
// disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
