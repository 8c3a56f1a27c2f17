package scheduler

import (
	"context"
	"log/slog"
	"time"

	"fan_hub/internal/domain"
)

// Refresher defines the interface for refresh operations.
type Refresher interface {
	Refresh(ctx context.Context) *domain.RefreshStats
}

type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

func NewScheduler(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

// runRefresh bounds each cycle so a hung upstream cannot stall the
// following ticks.
func (s *Scheduler) runRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	stats := s.refresher.Refresh(refreshCtx)
	if stats.Errors > 0 {
		s.logger.Warn("refresh finished with errors", "errors", stats.Errors)
	}
}
