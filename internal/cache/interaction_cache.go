package cache

import (
	"botstudio/internal/models"
	"botstudio/pkg/redis"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// InteractionKey addresses one cached node. Draft and published forms of a
// node are cached under distinct keys and invalidated independently.
type InteractionKey struct {
	InteractionID string
	Published     bool
}

func (k InteractionKey) String() string {
	if k.Published {
		return fmt.Sprintf("interaction:published:%s", k.InteractionID)
	}
	return fmt.Sprintf("interaction:draft:%s", k.InteractionID)
}

// InteractionCache is the read-through cache port owned by the node store.
// Entries are immutable until invalidated; every write that changes a record
// invalidates the corresponding key synchronously.
type InteractionCache interface {
	Get(ctx context.Context, key InteractionKey) (*models.Interaction, bool)
	Set(ctx context.Context, key InteractionKey, interaction *models.Interaction) error
	Invalidate(ctx context.Context, key InteractionKey) error
}

type redisInteractionCache struct {
	redis redis.IRedisRepositories
	ttl   time.Duration
}

func NewRedisInteractionCache(redisRepo redis.IRedisRepositories) InteractionCache {
	return &redisInteractionCache{
		redis: redisRepo,
		// Safety net only; invalidation is the real lifecycle.
		ttl: 24 * time.Hour,
	}
}

func (c *redisInteractionCache) Get(ctx context.Context, key InteractionKey) (*models.Interaction, bool) {
	raw, err := c.redis.Get(key.String(), ctx)
	if err != nil {
		return nil, false
	}

	var interaction models.Interaction
	if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
		log.Printf("InteractionCache -> Get -> corrupt entry for %s: %v", key, err)
		_ = c.redis.Del(key.String(), ctx)
		return nil, false
	}
	return &interaction, true
}

func (c *redisInteractionCache) Set(ctx context.Context, key InteractionKey, interaction *models.Interaction) error {
	raw, err := json.Marshal(interaction)
	if err != nil {
		return err
	}
	return c.redis.Set(key.String(), raw, c.ttl, ctx)
}

func (c *redisInteractionCache) Invalidate(ctx context.Context, key InteractionKey) error {
	return c.redis.Del(key.String(), ctx)
}
