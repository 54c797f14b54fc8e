// Package cache is a small in-process cache for expensive read-mostly
// queries, like the home page aggregates. Entries carry tags so that a write
// can drop everything that depended on it.
package cache

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

type Cache struct {
	client  *ristretto.Cache
	marshal *marshaler.Marshaler
}

// New creates a cache that holds roughly maxItems entries.
func New(maxItems int64) (*Cache, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,

		// Every entry costs 1, so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, oops.New(err, "failed to create ristretto cache")
	}

	cacheManager := cache.New[any](ristretto_store.NewRistretto(client))
	return &Cache{
		client:  client,
		marshal: marshaler.New(cacheManager),
	}, nil
}

// Shared is the process-wide cache.
var Shared *Cache

func init() {
	var err error
	Shared, err = New(1000)
	if err != nil {
		panic(err)
	}
}

// Get decodes the entry at key into dest. A miss is reported as an error.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	_, err := c.marshal.Get(ctx, key, dest)
	return err
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	opts := []store.Option{
		store.WithCost(1),
		store.WithExpiration(ttl),
	}
	if len(tags) > 0 {
		opts = append(opts, store.WithTags(tags))
	}
	return c.marshal.Set(ctx, key, value, opts...)
}

// Invalidate drops every entry that was stored with any of the given tags.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	return c.marshal.Invalidate(ctx, store.WithInvalidateTags(tags))
}

// Wait blocks until pending writes are visible to Get. Writes are buffered,
// so a Get right after a Set can miss.
func (c *Cache) Wait() {
	c.client.Wait()
}

/*
Remember returns the cached value for key, or calls fetch and caches what it
returns. Failing to write the cache is logged and otherwise ignored; failing
to fetch is returned as-is.
*/
func Remember[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	tags []string,
	fetch func() (*T, error),
) (*T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, key, result, ttl, tags...); err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Str("key", key).Msg("failed to write cache entry")
	}
	return result, nil
}
