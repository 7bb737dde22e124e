package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type RedisCache struct {
	client    *redis.Client
	ctx       context.Context
	keyPrefix string
	breaker   *CircuitBreaker
	metrics   *CacheMetrics
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Breaker      *CircuitBreakerConfig
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		KeyPrefix:    "opsboard:cache:",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client:    rdb,
		ctx:       context.Background(),
		keyPrefix: config.KeyPrefix,
		breaker:   NewCircuitBreaker(config.Breaker),
		metrics:   NewCacheMetrics(),
	}
}

func (r *RedisCache) key(key string) string {
	return r.keyPrefix + key
}

// do runs fn through the circuit breaker. An open breaker reports ErrCacheDown.
func (r *RedisCache) do(fn func() error) error {
	err := r.breaker.Execute(fn)
	if errors.Is(err, ErrCircuitBreakerOpen) {
		r.metrics.RecordError()
		return ErrCacheDown
	}
	return err
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = r.do(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		return r.client.Set(ctx, r.key(key), data, expiration).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to set cache: %w", err)
	}

	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(key string, dest interface{}) error {
	var data string
	err := r.do(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()

		var getErr error
		data, getErr = r.client.Get(ctx, r.key(key)).Result()
		if errors.Is(getErr, redis.Nil) {
			return nil
		}
		return getErr
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to get from cache: %w", err)
	}
	if data == "" {
		r.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Delete(key string) error {
	err := r.do(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		return r.client.Del(ctx, r.key(key)).Err()
	})
	if err != nil {
		return err
	}
	r.metrics.RecordDelete()
	return nil
}

// DeletePattern removes keys matching a glob pattern, walking them with SCAN.
func (r *RedisCache) DeletePattern(pattern string) error {
	return r.do(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 10*time.Second)
		defer cancel()

		iter := r.client.Scan(ctx, 0, r.key(pattern), 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
		}

		if len(keys) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		for range keys {
			r.metrics.RecordDelete()
		}
		return nil
	})
}

func (r *RedisCache) Exists(key string) (bool, error) {
	var result int64
	err := r.do(func() error {
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()

		var existsErr error
		result, existsErr = r.client.Exists(ctx, r.key(key)).Result()
		return existsErr
	})
	if err != nil {
		return false, err
	}

	return result > 0, nil
}

func (r *RedisCache) Health() error {
	ctx, cancel := context.WithTimeout(r.ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()

	stats := r.metrics.Snapshot()
	stats["circuit_breaker"] = r.breaker.GetStats()
	stats["pool_hits"] = poolStats.Hits
	stats["pool_misses"] = poolStats.Misses
	stats["pool_timeouts"] = poolStats.Timeouts
	stats["pool_total"] = poolStats.TotalConns
	stats["pool_idle"] = poolStats.IdleConns
	stats["pool_stale"] = poolStats.StaleConns
	return stats
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
