package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/persistorai/neighborrank/internal/rank"
)

// LabelCache memoizes label name → id per tenant. Misses are not cached
// because a later bulk load may create the label.
type LabelCache struct {
	cache *expirable.LRU[string, rank.LabelID]
	group singleflight.Group
}

// NewLabelCache creates a cache holding at most size entries for ttl each.
func NewLabelCache(size int, ttl time.Duration) *LabelCache {
	return &LabelCache{cache: expirable.NewLRU[string, rank.LabelID](size, nil, ttl)}
}

func labelKey(tenantID, name string) string {
	return tenantID + "\x00" + name
}

// Resolve returns the cached id or calls load once for concurrent misses.
func (c *LabelCache) Resolve(
	ctx context.Context,
	tenantID, name string,
	load func(context.Context) (rank.LabelID, error),
) (rank.LabelID, error) {
	key := labelKey(tenantID, name)

	if id, ok := c.cache.Get(key); ok {
		return id, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		// Double-check after winning the singleflight race.
		if id, ok := c.cache.Get(key); ok {
			return id, nil
		}

		id, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.cache.Add(key, id)

		return id, nil
	})
	if err != nil {
		return 0, err
	}

	id, ok := val.(rank.LabelID)
	if !ok {
		return 0, fmt.Errorf("label cache: unexpected singleflight result type %T", val)
	}

	return id, nil
}

// Len returns the number of cached entries.
func (c *LabelCache) Len() int {
	return c.cache.Len()
}
