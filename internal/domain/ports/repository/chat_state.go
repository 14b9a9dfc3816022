package repository

import (
	"context"

	"telegram-dialog-bot/internal/domain/model"
)

// ChatStateRepository is the port for durable per-chat state.
type ChatStateRepository interface {
	// Get returns the state for chatID, or domain.ErrChatNotFound.
	Get(ctx context.Context, chatID int64) (*model.ChatState, error)
	// Create persists a fresh state record for an unknown chat.
	Create(ctx context.Context, state *model.ChatState) error
	// Save replaces the stored state.
	Save(ctx context.Context, state *model.ChatState) error
	// ListChatIDs returns all known chat ids. Used by bulk command invocation.
	ListChatIDs(ctx context.Context) ([]int64, error)
}
