package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Nil is returned by reads of keys that do not exist.
const Nil = redis.Nil

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db, poolSize, minIdleConns int) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	return &RedisClient{client: client}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) GetInt64(ctx context.Context, key string) (int64, error) {
	return r.client.Get(ctx, key).Int64()
}

func (r *RedisClient) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRevRange(ctx, key, start, stop).Result()
}

func (r *RedisClient) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRange(ctx, key, start, stop).Result()
}

// IncrPaired increments counterKey by one and member's score in zsetKey by one
// inside a single MULTI/EXEC block, returning the new counter value.
func (r *RedisClient) IncrPaired(ctx context.Context, counterKey, zsetKey, member string) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, counterKey)
		pipe.ZIncrBy(ctx, zsetKey, 1, member)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute paired increment: %w", err)
	}
	return incr.Val(), nil
}

// ForgetPaired drops counterKey and member from zsetKey in one transaction.
func (r *RedisClient) ForgetPaired(ctx context.Context, counterKey, zsetKey, member string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, counterKey)
		pipe.ZRem(ctx, zsetKey, member)
		return nil
	})
	return err
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
