package player

import (
	"sync"

	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
)

// MaxConcurrentPlayers caps the number of distinct live handles (active plus
// idle) the pool will ever hold.
const MaxConcurrentPlayers = 5

// ReadyFunc receives the position whose handle just became ready. Fired at
// most once per binding, never for superseded bindings.
type ReadyFunc func(feed.Position)

// binding ties a handle to a feed position for one Load cycle. gen is the
// pool-wide generation counter value at bind time; readiness and end-of-media
// callbacks carry it so stragglers from an earlier binding are rejected.
type binding struct {
	handle Handle
	gen    uint64
	ready  bool
}

// Pool hands out, tracks and reclaims a bounded set of media player handles.
// All tables are mutex-guarded; in normal operation every mutation arrives
// from the coordinator's dispatch loop, the mutex covers backend callback
// goroutines.
type Pool struct {
	factory Factory
	log     *zap.Logger

	mu      sync.Mutex
	active  map[feed.Position]*binding
	idle    []Handle
	gen     uint64
	onReady ReadyFunc
	closed  bool
}

// NewPool creates an empty pool. factory is invoked lazily as positions are
// acquired, never more than MaxConcurrentPlayers times concurrently.
func NewPool(factory Factory, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		factory: factory,
		log:     log,
		active:  make(map[feed.Position]*binding),
	}
}

// SetReadyFunc registers the readiness consumer. Must be set before the
// first Acquire; readiness events with no consumer are dropped.
func (p *Pool) SetReadyFunc(fn ReadyFunc) {
	p.mu.Lock()
	p.onReady = fn
	p.mu.Unlock()
}

// Acquire returns the handle bound to pos, binding a recycled or fresh one
// if none is. Calling Acquire for an already-bound position is idempotent:
// the same handle comes back untouched, readiness intact.
//
// When the idle pool is empty and the cap is reached, the active binding
// farthest from the requested position is recycled in place, which keeps the
// live-handle bound under every call sequence.
func (p *Pool) Acquire(pos feed.Position, sourceURL string) (Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if b, ok := p.active[pos]; ok {
		h := b.handle
		p.mu.Unlock()
		return h, nil
	}

	var h Handle
	recycled := false
	switch {
	case len(p.idle) > 0:
		h = p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
	case len(p.active) < MaxConcurrentPlayers:
		p.mu.Unlock()
		created, err := p.factory()
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = created.Close()
			return nil, ErrPoolClosed
		}
		// A concurrent Acquire for the same position wins; hand its
		// handle back and keep ours idle.
		if b, ok := p.active[pos]; ok {
			p.idle = append(p.idle, created)
			existing := b.handle
			p.mu.Unlock()
			return existing, nil
		}
		h = created
	default:
		// Callers normally release far positions before acquiring new
		// ones; if not, recycle the farthest active binding in place.
		victim := p.farthestLocked(pos)
		b := p.active[victim]
		delete(p.active, victim)
		h = b.handle
		recycled = true
		p.log.Debug("recycled player handle",
			zap.Int("from", int(victim)), zap.Int("to", int(pos)))
	}

	p.gen++
	gen := p.gen
	p.active[pos] = &binding{handle: h, gen: gen}
	p.mu.Unlock()

	if recycled {
		h.Pause()
		h.Detach()
	}
	h.Load(sourceURL, Events{
		OnReady: func() { p.handleReady(pos, gen) },
		OnEnd:   func() { p.handleEnd(pos, gen) },
	})
	return h, nil
}

// farthestLocked picks the active position with the greatest distance from
// pos. p.mu must be held.
func (p *Pool) farthestLocked(pos feed.Position) feed.Position {
	var victim feed.Position
	best := -1
	for cand := range p.active {
		d := int(cand) - int(pos)
		if d < 0 {
			d = -d
		}
		if d > best {
			best = d
			victim = cand
		}
	}
	return victim
}

// Release stops and unbinds the handle for pos, returning it to the idle
// pool. No-op when pos has no active handle.
func (p *Pool) Release(pos feed.Position) {
	p.mu.Lock()
	b, ok := p.active[pos]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, pos)
	h := b.handle
	keepIdle := len(p.idle) < MaxConcurrentPlayers && !p.closed
	if keepIdle {
		p.idle = append(p.idle, h)
	}
	p.mu.Unlock()

	h.Pause()
	h.Detach()
	if !keepIdle {
		_ = h.Close()
	}
}

// IsReady reports whether pos has an active handle whose current binding has
// finished preparing.
func (p *Pool) IsReady(pos feed.Position) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.active[pos]
	return ok && b.ready
}

// Play starts output for pos. Silently ignored unless an active, ready
// handle is bound; callers are expected to invoke it speculatively.
func (p *Pool) Play(pos feed.Position) {
	p.mu.Lock()
	b, ok := p.active[pos]
	if !ok || !b.ready {
		p.mu.Unlock()
		return
	}
	h := b.handle
	p.mu.Unlock()
	h.Play()
}

// PauseAll pauses every active handle regardless of readiness. Idempotent.
func (p *Pool) PauseAll() {
	p.mu.Lock()
	handles := make([]Handle, 0, len(p.active))
	for _, b := range p.active {
		handles = append(handles, b.handle)
	}
	p.mu.Unlock()

	for _, h := range handles {
		h.Pause()
	}
}

// Teardown pauses and closes every handle, active and idle, and disables the
// pool. Safe to call multiple times.
func (p *Pool) Teardown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.gen++ // silence every outstanding callback
	handles := make([]Handle, 0, len(p.active)+len(p.idle))
	for _, b := range p.active {
		handles = append(handles, b.handle)
	}
	handles = append(handles, p.idle...)
	p.active = make(map[feed.Position]*binding)
	p.idle = nil
	p.onReady = nil
	p.mu.Unlock()

	for _, h := range handles {
		h.Pause()
		h.Detach()
		_ = h.Close()
	}
}

// ActiveCount returns the number of position-bound handles.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// LiveCount returns the number of distinct live handles, active plus idle.
func (p *Pool) LiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active) + len(p.idle)
}

// Assigned reports whether pos currently has an active handle.
func (p *Pool) Assigned(pos feed.Position) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[pos]
	return ok
}

// handleReady is the backend readiness callback. The generation compare
// rejects callbacks armed by a binding that has since been replaced.
func (p *Pool) handleReady(pos feed.Position, gen uint64) {
	p.mu.Lock()
	b, ok := p.active[pos]
	if !ok || b.gen != gen || b.ready {
		p.mu.Unlock()
		return
	}
	b.ready = true
	fn := p.onReady
	p.mu.Unlock()

	p.log.Debug("player ready", zap.Int("position", int(pos)))
	if fn != nil {
		fn(pos)
	}
}

// handleEnd loops the handle: seek to start and resume, without notifying
// anyone. Looping is invisible to the coordinator.
func (p *Pool) handleEnd(pos feed.Position, gen uint64) {
	p.mu.Lock()
	b, ok := p.active[pos]
	if !ok || b.gen != gen {
		p.mu.Unlock()
		return
	}
	h := b.handle
	p.mu.Unlock()

	h.SeekStart()
	h.Play()
}
