package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-dialog-bot/internal/domain"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/repository"
)

var _ repository.ChatStateRepository = (*ChatStateRepo)(nil)

// ChatStateRepo persists per-chat state in Redis. Records have no TTL: chat
// state survives until an external collaborator removes it.
type ChatStateRepo struct {
	client RedisClient
}

func NewChatStateRepo(client RedisClient) *ChatStateRepo {
	return &ChatStateRepo{client: client}
}

func (r *ChatStateRepo) chatKey(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

func (r *ChatStateRepo) Get(ctx context.Context, chatID int64) (*model.ChatState, error) {
	data, err := r.client.Get(ctx, r.chatKey(chatID))
	if errors.Is(err, Nil) {
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}

	var state model.ChatState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode chat state %d: %w", chatID, err)
	}
	if state.Data == nil {
		state.Data = map[string]any{}
	}
	return &state, nil
}

func (r *ChatStateRepo) Create(ctx context.Context, state *model.ChatState) error {
	return r.Save(ctx, state)
}

func (r *ChatStateRepo) Save(ctx context.Context, state *model.ChatState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.chatKey(state.ChatID), data, 0)
}

func (r *ChatStateRepo) ListChatIDs(ctx context.Context) ([]int64, error) {
	var (
		ids    []int64
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, "chat:*", 100)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, "chat:"), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}
