package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

const keyPrefix = "mnemo:turnstate:"

// turnStateStore parks the augmented context echo between two turns of the
// same conversation. Consume removes the value as it reads it (GETDEL), so the
// context is observable for exactly one subsequent turn; the TTL covers
// conversations that never come back.
type turnStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTurnStateStore creates the one-turn context echo store.
func NewTurnStateStore(client *redis.Client, ttl time.Duration) interfaces.TurnStateStore {
	return &turnStateStore{client: client, ttl: ttl}
}

func (s *turnStateStore) Put(ctx context.Context, conversationID string, amc *types.AugmentedMemoryContext) error {
	data, err := json.Marshal(amc)
	if err != nil {
		return fmt.Errorf("failed to marshal augmented context: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+conversationID, data, s.ttl).Err(); err != nil {
		logger.Errorf(ctx, "[Redis] Failed to store turn state for conversation %s: %v", conversationID, err)
		return apperrors.NewStoreError("redis", "put",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}
	return nil
}

func (s *turnStateStore) Consume(ctx context.Context, conversationID string) (*types.AugmentedMemoryContext, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Errorf(ctx, "[Redis] Failed to consume turn state for conversation %s: %v", conversationID, err)
		return nil, apperrors.NewStoreError("redis", "consume",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	var amc types.AugmentedMemoryContext
	if err := json.Unmarshal(data, &amc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal augmented context: %w", err)
	}
	return &amc, nil
}
