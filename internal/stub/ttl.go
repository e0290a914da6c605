package stub

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/docqa/internal/store"
)

const ttlWorkerInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically removes
// sessions idle for longer than ttl.
func StartTTLWorker(ctx context.Context, repo store.Repository, ttl time.Duration) {
	startTTLWorker(ctx, repo, ttl, ttlWorkerInterval)
}

func startTTLWorker(ctx context.Context, repo store.Repository, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				SweepExpiredSessions(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// SweepExpiredSessions deletes every expired session once and returns how
// many were removed.
func SweepExpiredSessions(ctx context.Context, repo store.Repository, ttl time.Duration) int {
	ids, err := repo.ExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to get expired sessions", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	slog.Info("TTL worker found expired sessions", "count", len(ids))

	cleaned := 0
	for _, id := range ids {
		if err := repo.DeleteSession(ctx, id); err != nil {
			if ctx.Err() != nil {
				slog.Debug("TTL worker: context canceled, cleanup may be incomplete", "session_id", id)
				return cleaned
			}
			slog.Warn("TTL worker failed to delete session", "error", err, "session_id", id)
			continue
		}
		cleaned++
	}

	slog.Info("TTL worker cleanup completed", "cleaned", cleaned)
	return cleaned
}
