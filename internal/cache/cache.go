// Package cache wraps a taxa store with a Redis read-through cache for the
// list operation. Every mutation bumps a version key and evicts the cached
// list; a list loaded from the base store is written back only if the
// version is unchanged since the load began.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Redis keys. listKey holds the JSON-encoded ordered taxa list; versionKey
// counts mutations.
const (
	listKey    = "taxa:list"
	versionKey = "taxa:list:ver"
)

var _ types.Store = (*Cache)(nil)

// Cache is a types.Store that serves ListTaxa from Redis when possible.
type Cache struct {
	base  types.Store
	redis *redis.Client
	ttl   time.Duration
}

// New creates a caching wrapper around base. A nil client or a zero ttl
// disables caching; all calls then go straight to base.
func New(base types.Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("cache.New: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// Dial parses a redis:// URL and returns a connected client.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ListTaxa returns the cached list, or loads it from the base store and
// caches it.
func (c *Cache) ListTaxa(ctx context.Context) ([]types.Taxon, error) {
	if taxa, ok := c.load(ctx); ok {
		return taxa, nil
	}
	ver, ok := c.version(ctx)
	taxa, err := c.base.ListTaxa(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		c.store(ctx, ver, taxa)
	}
	return taxa, nil
}

// CreateTaxon creates through the base store and evicts the cached list.
func (c *Cache) CreateTaxon(ctx context.Context, draft types.TaxonDraft) (types.Taxon, error) {
	t, err := c.base.CreateTaxon(ctx, draft)
	if err != nil {
		return types.Taxon{}, err
	}
	c.evict(ctx)
	return t, nil
}

// UpdateTaxon updates through the base store and evicts the cached list.
func (c *Cache) UpdateTaxon(ctx context.Context, id int64, taxon types.Taxon) (types.Taxon, error) {
	t, err := c.base.UpdateTaxon(ctx, id, taxon)
	if err != nil {
		return types.Taxon{}, err
	}
	c.evict(ctx)
	return t, nil
}

// DeleteTaxon deletes through the base store and evicts the cached list.
func (c *Cache) DeleteTaxon(ctx context.Context, id int64) error {
	if err := c.base.DeleteTaxon(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

// ReorderTaxa reorders through the base store and caches the returned list.
func (c *Cache) ReorderTaxa(ctx context.Context, ids []int64) ([]types.Taxon, error) {
	taxa, err := c.base.ReorderTaxa(ctx, ids)
	if err != nil {
		return nil, err
	}
	if ver, ok := c.evict(ctx); ok {
		c.store(ctx, ver, taxa)
	}
	return taxa, nil
}

func (c *Cache) load(ctx context.Context) ([]types.Taxon, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.redis.Get(ctx, listKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, listKey).Err()
		}
		return nil, false
	}
	var taxa []types.Taxon
	if err := json.Unmarshal(data, &taxa); err != nil {
		_ = c.redis.Del(ctx, listKey).Err()
		return nil, false
	}
	return taxa, true
}

// version returns the current mutation count. The second result is false
// when caching is off or Redis is unreachable.
func (c *Cache) version(ctx context.Context) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	ver, err := c.redis.Get(ctx, versionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		return 0, false
	}
	return ver, true
}

// store caches taxa if no mutation has bumped the version past ver. The
// version key is watched so a mutation racing the write aborts it.
func (c *Cache) store(ctx context.Context, ver int64, taxa []types.Taxon) {
	data, err := json.Marshal(taxa)
	if err != nil {
		return
	}
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listKey, data, c.ttl)
			return nil
		})
		return err
	}, versionKey)
}

// evict bumps the version and drops the cached list. It returns the new
// version; the second result is false when it could not be bumped.
func (c *Cache) evict(ctx context.Context) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	var incr *redis.IntCmd
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, listKey)
		return nil
	})
	if err != nil {
		return 0, false
	}
	return incr.Val(), c.ttl != 0
}
