package application

import (
	"context"
	"time"

	"github.com/flashbots/address-screener/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

var RedisPrefix = "address-screener:"
var RedisPrefixClearance = RedisPrefix + "clearance:"

func RedisKeyClearance(id string) string {
	return RedisPrefixClearance + id
}

// RedisClearanceCache shares clearance entries between replicas. Expiry is left to redis.
type RedisClearanceCache struct {
	RedisClient *redis.Client
}

func NewRedisClearanceCache(redisUrl string) (*RedisClearanceCache, error) {
	redisClient := redis.NewClient(&redis.Options{Addr: redisUrl})

	// Try to get a key to see if there's an error with the connection
	if err := redisClient.Get(context.Background(), "somekey").Err(); err != nil && err != redis.Nil {
		return nil, errors.Wrap(err, "redis init error")
	}

	return &RedisClearanceCache{
		RedisClient: redisClient,
	}, nil
}

func (c *RedisClearanceCache) Get(ctx context.Context, id string) (bool, error) {
	err := c.RedisClient.Get(ctx, RedisKeyClearance(id)).Err()
	if err == redis.Nil {
		return false, nil // just not found
	} else if err != nil {
		metrics.IncRedisErr()
		return false, err
	}
	return true, nil
}

func (c *RedisClearanceCache) Put(ctx context.Context, id string, ttl time.Duration) error {
	err := c.RedisClient.Set(ctx, RedisKeyClearance(id), Now().UTC().Unix(), ttl).Err()
	if err != nil {
		metrics.IncRedisErr()
	}
	return err
}

// Purge removes all clearance entries, leaving other keys of the redis instance alone
func (c *RedisClearanceCache) Purge(ctx context.Context) error {
	iter := c.RedisClient.Scan(ctx, 0, RedisPrefixClearance+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			metrics.IncRedisErr()
			return err
		}
	}
	if err := iter.Err(); err != nil {
		metrics.IncRedisErr()
		return err
	}
	return nil
}

func (c *RedisClearanceCache) Close() error {
	return c.RedisClient.Close()
}
