package prefetch

import (
	"context"
	"sync"
	"testing"

	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/netmon"
)

type recordingWarmer struct {
	mu     sync.Mutex
	warmed []feed.Position
}

func (w *recordingWarmer) Warm(_ context.Context, pos feed.Position, sourceURL string) *Asset {
	w.mu.Lock()
	w.warmed = append(w.warmed, pos)
	w.mu.Unlock()
	return NewWarmedAsset(pos, sourceURL)
}

func (w *recordingWarmer) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.warmed)
}

func cacheItems(n int) []feed.VideoItem {
	items := make([]feed.VideoItem, n)
	for i := range items {
		items[i] = feed.VideoItem{
			ID:        "vid",
			SourceURL: "https://cdn.example/v.mp4",
			Position:  feed.Position(i),
		}
	}
	return items
}

func cachedPositions(c *Cache, n int) []feed.Position {
	var out []feed.Position
	for i := 0; i < n; i++ {
		if _, ok := c.Lookup(feed.Position(i)); ok {
			out = append(out, feed.Position(i))
		}
	}
	return out
}

func TestPrefetch_WindowAroundMiddle(t *testing.T) {
	w := &recordingWarmer{}
	c := NewCache(w, nil)

	// Conservative default: depth 3, window [pos-1, pos+3].
	c.Prefetch(context.Background(), 5, cacheItems(20))

	want := []feed.Position{4, 5, 6, 7, 8}
	got := cachedPositions(c, 20)
	if len(got) != len(want) {
		t.Fatalf("expected %v cached, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v cached, got %v", want, got)
		}
	}
}

func TestPrefetch_WindowClampedAtStart(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	c.Prefetch(context.Background(), 0, cacheItems(20))

	if _, ok := c.Lookup(-1); ok {
		t.Fatal("expected no entry before the start of the list")
	}
	for i := 0; i <= 3; i++ {
		if _, ok := c.Lookup(feed.Position(i)); !ok {
			t.Fatalf("expected position %d cached", i)
		}
	}
}

func TestPrefetch_WindowClampedAtEnd(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	c.Prefetch(context.Background(), 9, cacheItems(10))

	if got := cachedPositions(c, 10); len(got) != 2 || got[0] != 8 || got[1] != 9 {
		t.Fatalf("expected positions 8 and 9 cached, got %v", got)
	}
}

func TestPrefetch_SkipsCachedAndUnplayable(t *testing.T) {
	w := &recordingWarmer{}
	c := NewCache(w, nil)
	items := cacheItems(10)
	items[6].SourceURL = ""

	c.Prefetch(context.Background(), 5, items)
	first := w.count()
	if _, ok := c.Lookup(6); ok {
		t.Fatal("expected the unplayable item to be skipped")
	}

	c.Prefetch(context.Background(), 5, items)
	if w.count() != first {
		t.Fatalf("expected no re-warming on a repeated pass, %d -> %d", first, w.count())
	}
}

func TestPrefetch_EvictsOutsideSlackWindow(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	items := cacheItems(40)

	c.Prefetch(context.Background(), 2, items)
	c.Prefetch(context.Background(), 20, items)

	// Eviction bound: [20-2, 20+3+2] = [18, 25].
	for i := 0; i < 18; i++ {
		if _, ok := c.Lookup(feed.Position(i)); ok {
			t.Fatalf("expected position %d evicted", i)
		}
	}
	for i := 19; i <= 23; i++ {
		if _, ok := c.Lookup(feed.Position(i)); !ok {
			t.Fatalf("expected position %d retained", i)
		}
	}
}

func TestPrefetch_SlackKeepsRecentNeighbours(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	items := cacheItems(20)

	c.Prefetch(context.Background(), 5, items) // warms 4..8
	c.Prefetch(context.Background(), 6, items) // eviction window [4, 11]

	if _, ok := c.Lookup(4); !ok {
		t.Fatal("expected the just-behind neighbour to survive a one-step advance")
	}
}

func TestApplyStrategy_ChangesDepth(t *testing.T) {
	w := &recordingWarmer{}
	c := NewCache(w, nil)
	items := cacheItems(30)

	c.ApplyStrategy(netmon.ConnectionWifi, netmon.StrategyAggressive)
	if c.Strategy() != netmon.StrategyAggressive {
		t.Fatalf("expected aggressive, got %s", c.Strategy())
	}

	c.Prefetch(context.Background(), 10, items)
	// Aggressive: depth 7, window [9, 17].
	for i := 9; i <= 17; i++ {
		if _, ok := c.Lookup(feed.Position(i)); !ok {
			t.Fatalf("expected position %d cached under aggressive strategy", i)
		}
	}
}

func TestApplyStrategy_MinimalShrinksWindow(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	items := cacheItems(30)

	c.ApplyStrategy(netmon.ConnectionOther, netmon.StrategyMinimal)
	c.Prefetch(context.Background(), 10, items)

	got := cachedPositions(c, 30)
	want := []feed.Position{9, 10, 11}
	if len(got) != len(want) {
		t.Fatalf("expected %v cached, got %v", want, got)
	}
}

func TestClear(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	c.Prefetch(context.Background(), 5, cacheItems(20))
	if c.Len() == 0 {
		t.Fatal("expected cached entries before clear")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d", c.Len())
	}
}

func TestPrefetch_EmptyList(t *testing.T) {
	c := NewCache(&recordingWarmer{}, nil)
	c.Prefetch(context.Background(), 0, nil)
	if c.Len() != 0 {
		t.Fatalf("expected nothing cached for an empty list, got %d", c.Len())
	}
}
