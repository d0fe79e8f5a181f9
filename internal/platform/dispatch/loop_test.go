package dispatch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Async(func() { got = append(got, i) })
	}
	l.Do(func() {})

	if len(got) != 100 {
		t.Fatalf("expected 100 tasks run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order (got %d)", i, v)
		}
	}
}

func TestLoop_TasksMayEnqueueFollowups(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var n atomic.Int32
	l.Async(func() {
		n.Add(1)
		l.Async(func() { n.Add(1) })
	})
	l.Do(func() {})

	if got := n.Load(); got != 2 {
		t.Fatalf("expected follow-up task to run, count %d", got)
	}
}

func TestLoop_DoWaits(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	done := false
	if !l.Do(func() { done = true }) {
		t.Fatal("expected Do to be accepted")
	}
	if !done {
		t.Fatal("expected Do to have completed before returning")
	}
}

func TestLoop_CloseDrainsPending(t *testing.T) {
	l := NewLoop()

	var n atomic.Int32
	for i := 0; i < 50; i++ {
		l.Async(func() { n.Add(1) })
	}
	l.Close()

	if got := n.Load(); got != 50 {
		t.Fatalf("expected all accepted tasks to run before close, got %d", got)
	}
}

func TestLoop_SubmitAfterCloseDropped(t *testing.T) {
	l := NewLoop()
	l.Close()

	if l.Async(func() { t.Error("task ran after close") }) {
		t.Fatal("expected Async to report rejection after close")
	}
	if l.Do(func() { t.Error("task ran after close") }) {
		t.Fatal("expected Do to report rejection after close")
	}
}

func TestLoop_CloseIdempotent(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()
}

func TestDebouncer_OnlyLastTriggerFires(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { n.Add(1) })
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := n.Load(); got != 1 {
		t.Fatalf("expected exactly one invocation, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { n.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(50 * time.Millisecond)

	if got := n.Load(); got != 0 {
		t.Fatalf("expected stop to cancel the pending invocation, got %d", got)
	}
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	if got := n.Load(); got != 0 {
		t.Fatalf("expected triggers after stop to be dropped, got %d", got)
	}
}
