package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"communibot/internal/model"
)

// TurnCache snapshots per-(group,user) conversation windows in redis so a
// restart does not wipe short-term memory. Entries expire with the memory
// TTL; the in-process ring buffer stays authoritative.
type TurnCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTurnCache(client *redisv9.Client, ttl time.Duration) *TurnCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TurnCache{client: client, ttl: ttl}
}

func (c *TurnCache) GetTurns(ctx context.Context, groupID string, userID int64) ([]model.ConversationTurn, bool, error) {
	raw, err := c.client.Get(ctx, c.key(groupID, userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get turns failed: %w", err)
	}

	var turns []model.ConversationTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached turns failed: %w", err)
	}
	return turns, true, nil
}

func (c *TurnCache) SetTurns(ctx context.Context, groupID string, userID int64, turns []model.ConversationTurn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turns failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(groupID, userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set turns failed: %w", err)
	}
	return nil
}

func (c *TurnCache) DeleteTurns(ctx context.Context, groupID string, userID int64) error {
	if err := c.client.Del(ctx, c.key(groupID, userID)).Err(); err != nil {
		return fmt.Errorf("redis delete turns failed: %w", err)
	}
	return nil
}

func (c *TurnCache) key(groupID string, userID int64) string {
	return fmt.Sprintf("ai:memory:%s:%d", groupID, userID)
}
