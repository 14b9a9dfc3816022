package repository

import (
	"context"
	"time"

	"telegram-dialog-bot/internal/domain/model"
)

// UpdateLogRepository records every inbound webhook update, including the
// processing error when dispatch failed. Failures here must never break the
// webhook contract; callers log and continue.
type UpdateLogRepository interface {
	Record(ctx context.Context, record *model.UpdateRecord) error
	// Purge deletes records older than maxAge and reports how many were removed.
	Purge(ctx context.Context, maxAge time.Duration) (int64, error)
}
