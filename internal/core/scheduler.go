package core

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler refreshes the snapshot immediately, then every
// interval until the context is cancelled. Individual refresh failures are
// logged and the schedule continues; the previous artifact stays served.
// Each cycle also prunes archived runs past the retention window.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	slog.Info("refresh scheduler started", "interval", interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

func (s *Service) runRefresh(ctx context.Context) {
	start := time.Now()
	if err := s.Refresh(ctx); err != nil {
		slog.Error("scheduled refresh failed", "error", err)
		return
	}
	slog.Debug("scheduled refresh completed", "duration_ms", time.Since(start).Milliseconds())

	s.PruneArchive(ctx)
}

// PruneArchive removes archived runs older than the retention window.
// A no-op without a store or a retention setting; prune failures are
// logged and never disturb the refresh cycle.
func (s *Service) PruneArchive(ctx context.Context) {
	if s.store == nil || s.retention <= 0 {
		return
	}

	pruned, err := s.store.Prune(ctx, s.retention)
	if err != nil {
		slog.Error("archive prune failed", "error", err)
		return
	}
	if pruned > 0 {
		slog.Info("pruned archived snapshot runs",
			"runs_pruned", pruned,
			"retention", s.retention,
		)
	}
}
