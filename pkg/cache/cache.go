// Package cache is the in-process read cache: a TTL-per-call LRU with
// per-key de-duplication of concurrent misses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/boostify/btf2300-sdk-go/pkg/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrSkipStore marks a computed value that is valid but must not be cached,
// such as a "not found" record. GetOrCompute strips it and returns the value
// with a nil error.
var ErrSkipStore = errors.New("skip store")

// ErrComputePanic is returned to every waiter when a compute function
// panics.
var ErrComputePanic = errors.New("compute panicked")

// DefaultSize bounds the cache when Options.Size is not set.
const DefaultSize = 4096

type entry struct {
	value    any
	storedAt time.Time
}

// Options configures a Cache.
type Options struct {
	Size    int
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Stats are cumulative lookup counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Shared  uint64 `json:"shared"`
	Entries int    `json:"entries"`
}

// Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, entry]
	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.Metrics

	hits, misses, shared atomic.Uint64
}

// New builds a Cache.
func New(opts Options) (*Cache, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	entries, err := lru.New[string, entry](opts.Size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{entries: entries, now: opts.Now, metrics: opts.Metrics}, nil
}

// GetOrCompute returns the value stored under key if it is younger than
// ttl. Otherwise it runs fn, stores the value when fn succeeds and returns
// it. Failed computes are never stored.
//
// Concurrent misses on one key share a single fn invocation. fn runs
// detached from the caller's cancellation so a caller that gives up does
// not fail the others; the caller itself gets ctx.Err() right away.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := lookup[T](c, key, ttl); ok {
		c.hits.Add(1)
		c.metrics.CacheLookup("hit")
		return v, nil
	}
	c.misses.Add(1)
	c.metrics.CacheLookup("miss")

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (val any, err error) {
		// singleflight re-panics on its own goroutine, where nobody can
		// recover.
		defer func() {
			if r := recover(); r != nil {
				val, err = nil, fmt.Errorf("%w: %s: %v", ErrComputePanic, key, r)
			}
		}()
		v, err := fn(detached)
		switch {
		case err == nil:
			c.entries.Add(key, entry{value: v, storedAt: c.now()})
		case errors.Is(err, ErrSkipStore):
			err = nil
		}
		return v, err
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
			c.metrics.CacheLookup("shared")
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func lookup[T any](c *Cache, key string, ttl time.Duration) (T, bool) {
	var zero T
	e, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		c.entries.Remove(key)
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

// Invalidate drops key.
func (c *Cache) Invalidate(key string) {
	c.entries.Remove(key)
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) int {
	n := 0
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
			n++
		}
	}
	return n
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Stats returns the lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Shared:  c.shared.Load(),
		Entries: c.entries.Len(),
	}
}

// Key joins op and args into a cache key, e.g. Key("balance", 1001, addr)
// gives "balance:1001:0xAbC...".
func Key(op string, args ...any) string {
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		b.WriteByte(':')
		fmt.Fprint(&b, a)
	}
	return b.String()
}
