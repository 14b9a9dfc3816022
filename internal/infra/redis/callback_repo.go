package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-dialog-bot/internal/domain"
	"telegram-dialog-bot/internal/domain/model"
	"telegram-dialog-bot/internal/domain/ports/repository"
)

var _ repository.CallbackRepository = (*CallbackRepo)(nil)

// CallbackRepo stores callback token records in Redis. Each record lives under
// its token key; a companion set per correlation key tracks the whole family
// so one dialog run can be cleaned up in bulk. Both carry the same TTL, the
// backstop for tokens a finished dialog never deleted.
type CallbackRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewCallbackRepo(client RedisClient, ttl time.Duration) *CallbackRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CallbackRepo{client: client, ttl: ttl}
}

func (r *CallbackRepo) tokenKey(token string) string {
	return "cbtoken:" + token
}

func (r *CallbackRepo) correlationKey(key string) string {
	return "cbcorr:" + key
}

func (r *CallbackRepo) Create(ctx context.Context, rec *model.CallbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.tokenKey(rec.Token), data, r.ttl); err != nil {
		return err
	}
	corr := rec.Correlation()
	if corr == "" {
		return nil
	}
	setKey := r.correlationKey(corr)
	if err := r.client.SAdd(ctx, setKey, rec.Token); err != nil {
		return err
	}
	return r.client.Expire(ctx, setKey, r.ttl)
}

func (r *CallbackRepo) Get(ctx context.Context, token string) (*model.CallbackRecord, error) {
	data, err := r.client.Get(ctx, r.tokenKey(token))
	if errors.Is(err, Nil) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec model.CallbackRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode callback record: %w", err)
	}
	return &rec, nil
}

func (r *CallbackRepo) DeleteByCorrelation(ctx context.Context, correlationKey string) error {
	setKey := r.correlationKey(correlationKey)
	tokens, err := r.client.SMembers(ctx, setKey)
	if err != nil && !errors.Is(err, Nil) {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, r.tokenKey(token))
	}
	keys = append(keys, setKey)
	return r.client.Del(ctx, keys...)
}
