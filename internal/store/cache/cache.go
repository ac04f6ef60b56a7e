// Package cache adds a Redis read-through cache in front of a LenderStore.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"

	"github.com/redis/go-redis/v9"
)

// LenderStore caches List and Get. Every write drops the list entry and the
// affected lender entries. Redis failures degrade to the backing store.
type LenderStore struct {
	next   store.LenderStore
	redis  redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewLenderStore(next store.LenderStore, client redis.Cmdable, ttl time.Duration, prefix string, log logger.Logger) *LenderStore {
	return &LenderStore{
		next:   next,
		redis:  client,
		ttl:    ttl,
		prefix: prefix,
		logger: log.With(map[string]interface{}{"component": "lender-cache"}),
	}
}

func (c *LenderStore) listKey() string            { return c.prefix + "all" }
func (c *LenderStore) lenderKey(id string) string { return c.prefix + "id:" + id }

func (c *LenderStore) List(ctx context.Context) ([]models.LenderConfig, error) {
	var cached []models.LenderConfig
	if c.read(ctx, c.listKey(), &cached) {
		return cached, nil
	}

	lenders, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.write(ctx, c.listKey(), lenders)
	return lenders, nil
}

func (c *LenderStore) Get(ctx context.Context, id string) (*models.LenderConfig, error) {
	var cached models.LenderConfig
	if c.read(ctx, c.lenderKey(id), &cached) {
		return &cached, nil
	}

	l, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.write(ctx, c.lenderKey(id), l)
	return l, nil
}

func (c *LenderStore) Save(ctx context.Context, lender *models.LenderConfig) error {
	if err := c.next.Save(ctx, lender); err != nil {
		return err
	}
	c.invalidate(ctx, c.listKey(), c.lenderKey(lender.ID))
	return nil
}

func (c *LenderStore) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, c.listKey(), c.lenderKey(id))
	return nil
}

func (c *LenderStore) Count(ctx context.Context) (int64, error) {
	return c.next.Count(ctx)
}

func (c *LenderStore) ReplaceDefaults(ctx context.Context, defaults []models.LenderConfig) (int64, error) {
	n, err := c.next.ReplaceDefaults(ctx, defaults)
	if err != nil {
		return 0, err
	}
	c.invalidatePrefix(ctx)
	return n, nil
}

func (c *LenderStore) InsertMany(ctx context.Context, lenders []models.LenderConfig) error {
	if err := c.next.InsertMany(ctx, lenders); err != nil {
		return err
	}
	keys := []string{c.listKey()}
	for _, l := range lenders {
		keys = append(keys, c.lenderKey(l.ID))
	}
	c.invalidate(ctx, keys...)
	return nil
}

func (c *LenderStore) read(ctx context.Context, key string, dst interface{}) bool {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
		}
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("cache entry corrupt", map[string]interface{}{"key": key, "error": err})
		return false
	}
	return true
}

func (c *LenderStore) write(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}

func (c *LenderStore) invalidate(ctx context.Context, keys ...string) {
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", map[string]interface{}{"keys": keys, "error": err})
	}
}

// invalidatePrefix drops every key under the cache prefix.
func (c *LenderStore) invalidatePrefix(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", map[string]interface{}{"error": err})
	}
	if len(keys) > 0 {
		c.invalidate(ctx, keys...)
	}
}

var _ store.LenderStore = (*LenderStore)(nil)
