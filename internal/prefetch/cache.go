package prefetch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/netmon"
)

// evictionSlack widens the eviction window beyond the warming window so a
// quick scroll back does not immediately re-warm just-evicted neighbours.
const evictionSlack = 2

// Cache is the bounded sliding-window asset cache. Entries outside
// [current-2, current+depth+2] are evicted eagerly after every prefetch
// pass. Overlapping passes are safe: warming an already-cached position is a
// no-op and the eviction pass is last-writer-wins.
type Cache struct {
	warmer Warmer
	log    *zap.Logger

	mu       sync.Mutex
	strategy netmon.Strategy
	entries  map[feed.Position]*Asset
}

// NewCache creates an empty cache with the conservative default strategy.
func NewCache(w Warmer, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		warmer:   w,
		log:      log,
		strategy: netmon.StrategyConservative,
		entries:  make(map[feed.Position]*Asset),
	}
}

// ApplyStrategy is the netmon subscriber hook; it only records the new depth,
// the next prefetch pass acts on it.
func (c *Cache) ApplyStrategy(_ netmon.ConnectionType, s netmon.Strategy) {
	c.mu.Lock()
	c.strategy = s
	c.mu.Unlock()
}

// Strategy returns the depth policy currently in effect.
func (c *Cache) Strategy() netmon.Strategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// Prefetch warms positions [max(0, around-1), min(len-1, around+depth)] that
// are not already cached and carry a valid address, then evicts everything
// outside [around-2, around+depth+2].
func (c *Cache) Prefetch(ctx context.Context, around feed.Position, items []feed.VideoItem) {
	c.mu.Lock()
	depth := c.strategy.Depth()

	start := int(around) - 1
	if start < 0 {
		start = 0
	}
	end := int(around) + depth
	if end > len(items)-1 {
		end = len(items) - 1
	}

	if start <= end {
		for i := start; i <= end; i++ {
			pos := feed.Position(i)
			if _, ok := c.entries[pos]; ok {
				continue
			}
			item := items[i]
			if !item.Playable() {
				continue
			}
			c.entries[pos] = c.warmer.Warm(ctx, pos, item.SourceURL)
		}
	}

	lo := int(around) - evictionSlack
	hi := int(around) + depth + evictionSlack
	evicted := 0
	for pos := range c.entries {
		if int(pos) < lo || int(pos) > hi {
			delete(c.entries, pos)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		c.log.Debug("prefetch window advanced",
			zap.Int("around", int(around)),
			zap.Int("depth", depth),
			zap.Int("evicted", evicted),
			zap.Int("cached", size))
	}
}

// Lookup returns the cached asset for pos, if present.
func (c *Cache) Lookup(pos feed.Position) (*Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[pos]
	return a, ok
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached asset. In-flight warming is left to complete and
// be ignored; the handles are unreachable once dropped.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[feed.Position]*Asset)
}
