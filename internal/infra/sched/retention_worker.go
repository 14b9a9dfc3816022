package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-dialog-bot/internal/domain/ports/repository"
)

// RetentionWorker periodically purges old entries from the update log.
type RetentionWorker struct {
	interval time.Duration
	maxAge   time.Duration
	updates  repository.UpdateLogRepository
	log      *zerolog.Logger
}

func NewRetentionWorker(interval, maxAge time.Duration, updates repository.UpdateLogRepository, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		maxAge:   maxAge,
		updates:  updates,
		log:      &retLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.updates.Purge(ctx, w.maxAge)
			if err != nil {
				w.log.Error().Err(err).Msg("retention worker error")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("old updates purged")
			}
		}
	}
}
