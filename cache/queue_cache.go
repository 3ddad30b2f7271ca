package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ShelfFM/model"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey      = "player:queue"
	queueStateKey = "player:state"
	queueTTL      = 7 * 24 * time.Hour
)

// queueState is the non-ordered part of the snapshot.
type queueState struct {
	CurrentID string `json:"currentId"`
	ShuffleOn bool   `json:"shuffleOn"`
}

// QueueCache mirrors the live playback queue to Redis so a daemon restart
// resumes with the same queue. Only track ids are stored, never payloads.
type QueueCache struct {
	client *redis.Client
}

// NewQueueCache wraps a connected Redis client.
func NewQueueCache(client *redis.Client) *QueueCache {
	return &QueueCache{client: client}
}

// Save replaces the stored snapshot with the given queue.
func (c *QueueCache) Save(ctx context.Context, q model.Queue) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, queueKey)

	// Ordered ids as a ZSET scored by position.
	members := make([]redis.Z, 0, len(q.IDs))
	for i, id := range q.IDs {
		members = append(members, redis.Z{Score: float64(i), Member: id})
	}
	if len(members) > 0 {
		pipe.ZAdd(ctx, queueKey, members...)
		pipe.Expire(ctx, queueKey, queueTTL)
	}

	stateJSON, err := json.Marshal(queueState{CurrentID: q.CurrentID, ShuffleOn: q.ShuffleOn})
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}
	pipe.Set(ctx, queueStateKey, stateJSON, queueTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save queue snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or (nil, nil) when none exists.
func (c *QueueCache) Load(ctx context.Context) (*model.Queue, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	ids, err := c.client.ZRangeByScore(ctx, queueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	stateJSON, err := c.client.Get(ctx, queueStateKey).Result()
	if err != nil {
		if err == redis.Nil {
			if len(ids) == 0 {
				return nil, nil
			}
			return &model.Queue{IDs: ids}, nil
		}
		return nil, fmt.Errorf("failed to load queue state: %w", err)
	}

	var state queueState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue state: %w", err)
	}

	return &model.Queue{
		IDs:       ids,
		CurrentID: state.CurrentID,
		ShuffleOn: state.ShuffleOn,
	}, nil
}

// Clear drops the stored snapshot.
func (c *QueueCache) Clear(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	if err := c.client.Del(ctx, queueKey, queueStateKey).Err(); err != nil {
		return fmt.Errorf("failed to clear queue snapshot: %w", err)
	}
	return nil
}
