// Package coordinator decides, from scroll position, scroll-in-flight, input
// focus, app lifecycle and player readiness, which single video should be
// playing at any settled moment, and drives the player pool accordingly.
package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/platform/dispatch"
	"github.com/example/reelfeed/internal/player"
	"github.com/example/reelfeed/internal/prefetch"
)

const (
	// defaultPlaybackDebounce is how long the (position, scrolling,
	// focus) combination must be stable before playback switches.
	defaultPlaybackDebounce = 200 * time.Millisecond

	// defaultPrefetchDebounce reacts faster: warming is cheap to start
	// speculatively, so it follows position changes more eagerly than
	// playback does.
	defaultPrefetchDebounce = 100 * time.Millisecond
)

// noPosition marks "nothing should be playing" in the applied-decision latch.
const noPosition = feed.Position(-1)

// ManifestSource is the external feed collaborator. The call may complete on
// any goroutine; the coordinator marshals the result onto its decision loop.
type ManifestSource interface {
	FetchVideoList(ctx context.Context) ([]feed.VideoItem, error)
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithPlaybackDebounce overrides the composite-state debounce window.
func WithPlaybackDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.playbackWindow = d }
}

// WithPrefetchDebounce overrides the prefetch debounce window.
func WithPrefetchDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.prefetchWindow = d }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// Coordinator serializes every state mutation and decision evaluation on a
// single dispatch loop. Readiness events and debounce expirations re-enter
// through the same loop, so evaluations never interleave.
type Coordinator struct {
	loop     *dispatch.Loop
	pool     *player.Pool
	cache    *prefetch.Cache
	manifest ManifestSource
	log      *zap.Logger

	playbackWindow time.Duration
	prefetchWindow time.Duration
	playDeb        *dispatch.Debouncer
	prefetchDeb    *dispatch.Debouncer

	// Composite playback-gating state. Only ever touched on the loop.
	items        []feed.VideoItem
	loadState    feed.LoadState
	loadErrKind  feed.ErrorKind
	loading      bool
	position     feed.Position
	scrolling    bool
	inputFocused bool
	foreground   bool

	// applied is the decision currently in effect: the position whose
	// handle was last commanded to play, or noPosition. Re-evaluating an
	// unchanged decision is a no-op, which keeps the rule idempotent.
	applied feed.Position

	cleaned bool
}

// New wires the coordinator to its pool, cache and manifest source and
// starts the decision loop.
func New(pool *player.Pool, cache *prefetch.Cache, manifest ManifestSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		loop:           dispatch.NewLoop(),
		pool:           pool,
		cache:          cache,
		manifest:       manifest,
		log:            zap.NewNop(),
		playbackWindow: defaultPlaybackDebounce,
		prefetchWindow: defaultPrefetchDebounce,
		loadState:      feed.LoadStateIdle,
		foreground:     true,
		applied:        noPosition,
	}
	for _, o := range opts {
		o(c)
	}
	c.playDeb = dispatch.NewDebouncer(c.playbackWindow, func() {
		c.loop.Async(c.recompute)
	})
	c.prefetchDeb = dispatch.NewDebouncer(c.prefetchWindow, func() {
		c.loop.Async(c.prefetchPass)
	})
	pool.SetReadyFunc(func(pos feed.Position) {
		// Readiness alone never overrides gating state; re-run the full
		// rule at fire time.
		c.loop.Async(c.recompute)
	})
	return c
}

// LoadVideos requests the manifest and replaces the video list on success.
// Never retries automatically; the only recovery from an error state is a
// fresh LoadVideos call.
func (c *Coordinator) LoadVideos(ctx context.Context) {
	c.loop.Async(func() {
		if c.loading {
			return
		}
		c.loading = true
		c.loadState = feed.LoadStateLoading
		go func() {
			items, err := c.manifest.FetchVideoList(ctx)
			c.loop.Async(func() { c.finishLoad(items, err) })
		}()
	})
}

func (c *Coordinator) finishLoad(items []feed.VideoItem, err error) {
	c.loading = false
	switch {
	case err != nil:
		c.loadState = feed.LoadStateError
		c.loadErrKind = feed.KindOf(err)
		c.log.Warn("feed load failed",
			zap.String("kind", string(c.loadErrKind)), zap.Error(err))
	case len(items) == 0:
		c.loadState = feed.LoadStateError
		c.loadErrKind = feed.KindEmptyResult
		c.items = nil
		c.log.Warn("feed load returned no items")
	default:
		c.items = items
		c.loadState = feed.LoadStateLoaded
		c.loadErrKind = ""
		c.log.Info("feed loaded", zap.Int("items", len(items)))
		c.prefetchPass()
		c.recompute()
	}
}

// SetPosition records the visible feed position. Triggers both the playback
// and the prefetch debounce.
func (c *Coordinator) SetPosition(pos feed.Position) {
	c.loop.Async(func() {
		if pos == c.position {
			return
		}
		c.position = pos
		c.playDeb.Trigger()
		c.prefetchDeb.Trigger()
	})
}

// SetScrolling records whether a scroll gesture is in flight.
func (c *Coordinator) SetScrolling(scrolling bool) {
	c.loop.Async(func() {
		if scrolling == c.scrolling {
			return
		}
		c.scrolling = scrolling
		c.playDeb.Trigger()
	})
}

// SetInputFocused records text-input focus. Focusing pauses everything
// immediately, ahead of the debounced recomputation.
func (c *Coordinator) SetInputFocused(focused bool) {
	c.loop.Async(func() {
		if focused == c.inputFocused {
			return
		}
		c.inputFocused = focused
		if focused {
			c.pool.PauseAll()
			c.applied = noPosition
		}
		c.playDeb.Trigger()
	})
}

// GetPlayer returns the handle for pos, acquiring one if needed. It returns
// nil when pos is out of bounds or the item's address is invalid; the caller
// renders nothing in that case. This is the only path that creates handles.
func (c *Coordinator) GetPlayer(pos feed.Position) player.Handle {
	var h player.Handle
	c.loop.Do(func() {
		if int(pos) < 0 || int(pos) >= len(c.items) {
			return
		}
		item := c.items[pos]
		if !item.Playable() {
			return
		}
		acquired, err := c.pool.Acquire(pos, item.SourceURL)
		if err != nil {
			c.log.Warn("player acquire failed", zap.Int("position", int(pos)), zap.Error(err))
			return
		}
		h = acquired
	})
	return h
}

// ReleasePlayer returns pos's handle to the pool, driven by the presentation
// layer's no-longer-visible signal.
func (c *Coordinator) ReleasePlayer(pos feed.Position) {
	c.loop.Async(func() {
		c.pool.Release(pos)
		if c.applied == pos {
			c.applied = noPosition
		}
	})
}

// PauseAllPlayers pauses every active handle immediately.
func (c *Coordinator) PauseAllPlayers() {
	c.loop.Async(func() {
		c.pool.PauseAll()
		c.applied = noPosition
	})
}

// AppDidEnterBackground pauses everything and drops input focus.
func (c *Coordinator) AppDidEnterBackground() {
	c.loop.Async(func() {
		c.foreground = false
		c.inputFocused = false
		c.pool.PauseAll()
		c.applied = noPosition
	})
}

// AppWillEnterForeground re-runs the decision rule for the current composite
// state, covering the case where the current position's handle became ready
// while backgrounded.
func (c *Coordinator) AppWillEnterForeground() {
	c.loop.Async(func() {
		c.foreground = true
		c.recompute()
	})
}

// CleanUp tears down the pool, stops the debouncers and closes the decision
// loop. Idempotent and safe to call without a prior LoadVideos.
func (c *Coordinator) CleanUp() {
	c.loop.Do(func() {
		if c.cleaned {
			return
		}
		c.cleaned = true
		c.playDeb.Stop()
		c.prefetchDeb.Stop()
		c.cache.Clear()
		c.pool.Teardown()
		c.applied = noPosition
	})
	c.loop.Close()
}

// Snapshot is a read-only view of coordinator state for the control surface.
type Snapshot struct {
	LoadState    string           `json:"load_state"`
	ErrorKind    string           `json:"error_kind,omitempty"`
	ItemCount    int              `json:"item_count"`
	Position     feed.Position    `json:"position"`
	Scrolling    bool             `json:"scrolling"`
	InputFocused bool             `json:"input_focused"`
	Foreground   bool             `json:"foreground"`
	Items        []feed.VideoItem `json:"items,omitempty"`
}

// State returns a consistent snapshot, optionally including the item list.
func (c *Coordinator) State(includeItems bool) Snapshot {
	var s Snapshot
	c.loop.Do(func() {
		s = Snapshot{
			LoadState:    c.loadState.String(),
			ErrorKind:    string(c.loadErrKind),
			ItemCount:    len(c.items),
			Position:     c.position,
			Scrolling:    c.scrolling,
			InputFocused: c.inputFocused,
			Foreground:   c.foreground,
		}
		if includeItems {
			s.Items = append([]feed.VideoItem(nil), c.items...)
		}
	})
	return s
}

// recompute applies the decision rule. Runs only on the loop.
//
// Gated (scrolling, focused or backgrounded): nothing may play. Otherwise:
// pause all, then play the current position if its handle is ready. The
// pause-all-then-play-one order trades a beat of silence on every switch for
// the guarantee that two handles are never audible together.
func (c *Coordinator) recompute() {
	if c.cleaned {
		return
	}
	desired := noPosition
	gated := c.scrolling || c.inputFocused || !c.foreground
	if !gated && c.loadState == feed.LoadStateLoaded && c.pool.IsReady(c.position) {
		desired = c.position
	}

	if desired == c.applied {
		return
	}
	c.pool.PauseAll()
	if desired != noPosition {
		c.pool.Play(desired)
		c.log.Debug("playback switched", zap.Int("position", int(desired)))
	}
	c.applied = desired
}

// prefetchPass feeds the cache the settled position. Warming itself is
// asynchronous; only window bookkeeping happens on the loop.
func (c *Coordinator) prefetchPass() {
	if c.cleaned || c.loadState != feed.LoadStateLoaded {
		return
	}
	c.cache.Prefetch(context.Background(), c.position, c.items)
}
