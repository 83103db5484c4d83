package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

const (
	costKeyPrefix = "settlement:costs:"
	latestKey     = "settlement:latest"
)

type RedisSettlementCache struct {
	client *redis.Client
}

func NewRedisSettlementCache(addr string, password string, db int) *RedisSettlementCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSettlementCache{client: client}
}

func (c *RedisSettlementCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSettlementCache) Close() error {
	return c.client.Close()
}

func (c *RedisSettlementCache) GetCosts(ctx context.Context, dateKey string) (map[int]float64, bool, error) {
	val, err := c.client.Get(ctx, costKeyPrefix+dateKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var costs map[int]float64
	if err := json.Unmarshal([]byte(val), &costs); err != nil {
		return nil, false, err
	}
	return costs, true, nil
}

func (c *RedisSettlementCache) SetCosts(ctx context.Context, dateKey string, costs map[int]float64, ttl time.Duration) error {
	if len(costs) == 0 {
		return nil
	}
	payload, err := json.Marshal(costs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, costKeyPrefix+dateKey, payload, ttl).Err()
}

func (c *RedisSettlementCache) GetLatest(ctx context.Context) (*domain.Settlement, bool, error) {
	val, err := c.client.Get(ctx, latestKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var settlement domain.Settlement
	if err := json.Unmarshal([]byte(val), &settlement); err != nil {
		return nil, false, err
	}
	return &settlement, true, nil
}

func (c *RedisSettlementCache) SetLatest(ctx context.Context, settlement *domain.Settlement, ttl time.Duration) error {
	if settlement == nil {
		return nil
	}
	payload, err := json.Marshal(settlement)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey, payload, ttl).Err()
}

func (c *RedisSettlementCache) InvalidateLatest(ctx context.Context) error {
	return c.client.Del(ctx, latestKey).Err()
}
