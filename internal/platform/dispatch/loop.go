// Package dispatch provides the single logical decision thread used by the
// playback core: a serial task loop plus a timer-reset debouncer. All feed,
// pool and coordinator state is mutated only from loop tasks, which is what
// makes pause-all-then-play-one sequencing safe without per-field locking.
package dispatch

import (
	"sync"
)

// Loop executes submitted tasks one at a time, in submission order, on a
// single goroutine. The queue is unbounded so tasks may safely enqueue
// follow-up tasks from within the loop.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	wg     sync.WaitGroup
}

// NewLoop starts the loop goroutine.
func NewLoop() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Async enqueues fn for execution on the loop goroutine. It reports whether
// the task was accepted; after Close all submissions are dropped.
func (l *Loop) Async(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Do runs fn on the loop goroutine and waits for it to finish. It must not
// be called from a task already running on the loop.
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	if !l.Async(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// Close stops the loop after all previously accepted tasks have run.
// Idempotent; submissions racing with Close are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	l.wg.Wait()
}
