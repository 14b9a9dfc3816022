package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/repository"
)

var _ repository.UpdateLogRepository = (*UpdateLogRepo)(nil)

// UpdateLogRepo keeps the durable trail of inbound webhook updates. The
// webhook always acknowledges the platform, so this log is where processing
// failures remain visible to operators.
type UpdateLogRepo struct {
	pool *pgxpool.Pool
}

func NewUpdateLogRepo(pool *pgxpool.Pool) *UpdateLogRepo {
	return &UpdateLogRepo{pool: pool}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (r *UpdateLogRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS telegram_updates (
    id         TEXT PRIMARY KEY,
    chat_id    BIGINT NOT NULL DEFAULT 0,
    payload    JSONB NOT NULL,
    error      TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS telegram_updates_created_at_idx ON telegram_updates (created_at);`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure telegram_updates schema: %w", err)
	}
	return nil
}

func (r *UpdateLogRepo) Record(ctx context.Context, rec *model.UpdateRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var errText *string
	if rec.Error != "" {
		errText = &rec.Error
	}
	const q = `
INSERT INTO telegram_updates (id, chat_id, payload, error, created_at)
VALUES ($1, $2, $3, $4, $5);`
	_, err := r.pool.Exec(ctx, q, rec.ID, rec.ChatID, rec.Payload, errText, rec.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		// ULID collision is vanishingly rare; one retry with a fresh id suffices.
		rec.ID = ulid.Make().String()
		_, err = r.pool.Exec(ctx, q, rec.ID, rec.ChatID, rec.Payload, errText, rec.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("record update: %w", err)
	}
	return nil
}

// Purge removes records older than maxAge and reports how many rows went away.
func (r *UpdateLogRepo) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	const q = `DELETE FROM telegram_updates WHERE created_at < $1;`
	tag, err := r.pool.Exec(ctx, q, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("purge updates: %w", err)
	}
	return tag.RowsAffected(), nil
}
