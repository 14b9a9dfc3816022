package repository

import (
	"context"

	"telegram-dialog-bot/internal/domain/model"
)

// CallbackRepository is the port for ephemeral callback token records.
type CallbackRepository interface {
	// Create persists the record. The token must already be set by the caller.
	Create(ctx context.Context, record *model.CallbackRecord) error
	// Get returns the record behind token, or domain.ErrTokenNotFound.
	Get(ctx context.Context, token string) (*model.CallbackRecord, error)
	// DeleteByCorrelation removes every record whose data carries the given
	// correlation key, including ones for steps that were never reached.
	DeleteByCorrelation(ctx context.Context, correlationKey string) error
}
