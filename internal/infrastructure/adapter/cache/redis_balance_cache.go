package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
)

// Config holds the redis connection and balance cache settings
type Config struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg Config, logger coreport.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis connection established", map[string]any{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})
	return client, nil
}

// RedisBalanceCache is a cache-aside store for account balances
type RedisBalanceCache struct {
	client    redis.Cmdable
	ttl       time.Duration
	keyPrefix string
	logger    coreport.Logger
}

// NewRedisBalanceCache creates a balance cache on top of client
func NewRedisBalanceCache(client redis.Cmdable, ttl time.Duration, keyPrefix string, logger coreport.Logger) *RedisBalanceCache {
	if keyPrefix == "" {
		keyPrefix = "coin-ledger"
	}
	return &RedisBalanceCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (c *RedisBalanceCache) key(accountID uint64) string {
	return c.keyPrefix + ":balance:" + strconv.FormatUint(accountID, 10)
}

// Get returns the cached balance and whether it was present
func (c *RedisBalanceCache) Get(ctx context.Context, accountID uint64) (int64, bool, error) {
	value, err := c.client.Get(ctx, c.key(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cached balance: %w", err)
	}

	balance, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		c.logger.Warn("Discarding malformed cached balance", map[string]any{
			"account_id": accountID,
			"value":      value,
		})
		return 0, false, nil
	}
	return balance, true, nil
}

// Set stores balance for the cache TTL
func (c *RedisBalanceCache) Set(ctx context.Context, accountID uint64, balance int64) error {
	if err := c.client.Set(ctx, c.key(accountID), balance, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached balance: %w", err)
	}
	return nil
}

// Invalidate drops the cached balances of accountIDs
func (c *RedisBalanceCache) Invalidate(ctx context.Context, accountIDs ...uint64) error {
	if len(accountIDs) == 0 {
		return nil
	}

	keys := make([]string, len(accountIDs))
	for i, id := range accountIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached balances: %w", err)
	}
	return nil
}

// TTL returns the staleness bound of a cached read
func (c *RedisBalanceCache) TTL() time.Duration {
	return c.ttl
}

var _ gateway.BalanceCache = (*RedisBalanceCache)(nil)
