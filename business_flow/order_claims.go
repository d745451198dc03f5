package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/order-relay/config"
	"github.com/amirphl/order-relay/utils"
	"github.com/redis/go-redis/v9"
)

// OrderClaimer marks a (shop, order) pair as being notified so concurrent
// redeliveries of the same order are reported as duplicates.
type OrderClaimer interface {
	Claim(ctx context.Context, shopDomain, orderID string) (bool, error)
	Release(ctx context.Context, shopDomain, orderID string) error
}

type redisOrderClaimer struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisOrderClaimer stores claims as SETNX keys that expire after the configured TTL
func NewRedisOrderClaimer(rc *redis.Client, cfg config.CacheConfig) OrderClaimer {
	ttl := cfg.ClaimTTL
	if ttl <= 0 {
		ttl = utils.OrderClaimTTL
	}
	return &redisOrderClaimer{rc: rc, prefix: cfg.RedisPrefix, ttl: ttl}
}

func (c *redisOrderClaimer) key(shopDomain, orderID string) string {
	return fmt.Sprintf("%s%s:%s:%s", c.prefix, utils.OrderClaimKeyPrefix, shopDomain, orderID)
}

func (c *redisOrderClaimer) Claim(ctx context.Context, shopDomain, orderID string) (bool, error) {
	ok, err := c.rc.SetNX(ctx, c.key(shopDomain, orderID), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	return ok, nil
}

func (c *redisOrderClaimer) Release(ctx context.Context, shopDomain, orderID string) error {
	return c.rc.Del(ctx, c.key(shopDomain, orderID)).Err()
}

type noopOrderClaimer struct{}

// NewNoopOrderClaimer grants every claim; duplicates are then caught by the history store only
func NewNoopOrderClaimer() OrderClaimer {
	return noopOrderClaimer{}
}

func (noopOrderClaimer) Claim(context.Context, string, string) (bool, error) { return true, nil }

func (noopOrderClaimer) Release(context.Context, string, string) error { return nil }
