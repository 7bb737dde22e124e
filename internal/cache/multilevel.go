package cache

import (
	"errors"
	"log"
	"time"
)

type Cache interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	DeletePattern(pattern string) error
	Exists(key string) (bool, error)
	Stats() map[string]interface{}
	Health() error
	Close() error
}

// MultiLevelCache reads through an in-process level and an optional Redis
// level. Writes and invalidations go to both. Redis errors degrade to L1-only
// behaviour and are never returned from Get.
type MultiLevelCache struct {
	l1    *MemoryCache
	l2    *RedisCache
	l1TTL time.Duration
}

func NewMultiLevelCache(redisCache *RedisCache) *MultiLevelCache {
	return &MultiLevelCache{
		l1:    NewMemoryCache(),
		l2:    redisCache,
		l1TTL: 5 * time.Minute,
	}
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(key, value, c.l1Expiry(ttl)); err != nil {
		return err
	}

	if c.l2 != nil {
		if err := c.l2.Set(key, value, ttl); err != nil {
			log.Printf("[cache] redis set %s failed: %v", key, err)
		}
	}

	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	err := c.l1.Get(key, dest)
	if err == nil || !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if c.l2 == nil {
		return ErrCacheMiss
	}

	if err := c.l2.Get(key, dest); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("[cache] redis get %s failed: %v", key, err)
		}
		return ErrCacheMiss
	}

	c.l1.Set(key, dest, c.l1TTL)
	return nil
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)

	if c.l2 != nil {
		return c.l2.Delete(key)
	}

	return nil
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	if err := c.l1.DeletePattern(pattern); err != nil {
		return err
	}

	if c.l2 != nil {
		return c.l2.DeletePattern(pattern)
	}

	return nil
}

func (c *MultiLevelCache) Exists(key string) (bool, error) {
	if found, _ := c.l1.Exists(key); found {
		return true, nil
	}

	if c.l2 != nil {
		return c.l2.Exists(key)
	}

	return false, nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1": c.l1.Stats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 != nil {
		return c.l2.Health()
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()

	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.l1TTL {
		return c.l1TTL
	}
	return ttl
}
