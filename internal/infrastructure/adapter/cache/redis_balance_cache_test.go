package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
)

func TestRedisBalanceCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewRedisBalanceCache(client, 5*time.Second, "test", logger.NewNoopLogger())

		mock.ExpectGet("test:balance:7").SetVal("250")

		balance, ok, err := cache.Get(ctx, 7)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(250), balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewRedisBalanceCache(client, 5*time.Second, "test", logger.NewNoopLogger())

		mock.ExpectGet("test:balance:7").RedisNil()

		_, ok, err := cache.Get(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed value is a miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewRedisBalanceCache(client, 5*time.Second, "test", logger.NewNoopLogger())

		mock.ExpectGet("test:balance:7").SetVal("not-a-number")

		_, ok, err := cache.Get(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("redis down", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewRedisBalanceCache(client, 5*time.Second, "test", logger.NewNoopLogger())

		mock.ExpectGet("test:balance:7").SetErr(errors.New("connection refused"))

		_, _, err := cache.Get(ctx, 7)
		assert.Error(t, err)
	})
}

func TestRedisBalanceCache_SetAndInvalidate(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewRedisBalanceCache(client, 5*time.Second, "", logger.NewNoopLogger())

	mock.ExpectSet("coin-ledger:balance:1", int64(100), 5*time.Second).SetVal("OK")
	mock.ExpectDel("coin-ledger:balance:1", "coin-ledger:balance:2").SetVal(2)

	require.NoError(t, cache.Set(ctx, 1, 100))
	require.NoError(t, cache.Invalidate(ctx, 1, 2))
	require.NoError(t, cache.Invalidate(ctx))
	assert.Equal(t, 5*time.Second, cache.TTL())
	assert.NoError(t, mock.ExpectationsWereMet())
}
