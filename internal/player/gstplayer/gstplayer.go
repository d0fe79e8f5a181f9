// Package gstplayer implements player.Handle on top of GStreamer's playbin.
// Readiness is the preroll-to-PAUSED transition; end-of-media is the EOS bus
// message. The package owns GStreamer initialization so nothing else in the
// process touches media-stack global state.
package gstplayer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/player"
)

var initOnce sync.Once

// NewFactory returns a player.Factory producing playbin-backed handles.
// GStreamer is initialized on the first handle construction, not at import.
func NewFactory(log *zap.Logger) player.Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return func() (player.Handle, error) {
		initOnce.Do(func() { gst.Init(nil) })
		return &handle{log: log}, nil
	}
}

type handle struct {
	log *zap.Logger

	mu       sync.Mutex
	pipeline *gst.Pipeline
	cancel   context.CancelFunc
}

var _ player.Handle = (*handle)(nil)

// Load tears down any previous pipeline and prerolls a fresh playbin for the
// source. The bus monitor goroutine translates bus traffic into the armed
// callbacks; it dies with the binding, so stale events can never reach a
// later one.
func (h *handle) Load(sourceURL string, ev player.Events) {
	h.Detach()

	pipeline, err := gst.NewPipelineFromString(fmt.Sprintf("playbin uri=%q", sourceURL))
	if err != nil {
		h.log.Warn("playbin construction failed", zap.String("uri", sourceURL), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.pipeline = pipeline
	h.cancel = cancel
	h.mu.Unlock()

	go h.watchBus(ctx, pipeline, ev)

	if err := pipeline.SetState(gst.StatePaused); err != nil {
		// Preroll refused: the source never reports ready. Terminal but
		// non-fatal, matching the pool's silent-unplayable contract.
		h.log.Warn("playbin preroll failed", zap.String("uri", sourceURL), zap.Error(err))
	}
}

// watchBus polls the pipeline bus until the binding is detached. OnReady
// fires once, on the first completed preroll; OnEnd fires on every EOS.
func (h *handle) watchBus(ctx context.Context, pipeline *gst.Pipeline, ev player.Events) {
	bus := pipeline.GetPipelineBus()
	readySent := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageAsyncDone:
			if !readySent {
				readySent = true
				if ev.OnReady != nil {
					ev.OnReady()
				}
			}
		case gst.MessageStateChanged:
			if readySent || msg.Source() != pipeline.GetName() {
				continue
			}
			if _, next := msg.ParseStateChanged(); next == gst.StatePaused {
				readySent = true
				if ev.OnReady != nil {
					ev.OnReady()
				}
			}
		case gst.MessageEOS:
			if ev.OnEnd != nil {
				ev.OnEnd()
			}
		case gst.MessageError:
			gerr := msg.ParseError()
			h.log.Warn("playbin error", zap.String("error", gerr.Error()))
		}
	}
}

func (h *handle) Play() {
	h.mu.Lock()
	pipeline := h.pipeline
	h.mu.Unlock()
	if pipeline == nil {
		return
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		h.log.Warn("playbin play failed", zap.Error(err))
	}
}

func (h *handle) Pause() {
	h.mu.Lock()
	pipeline := h.pipeline
	h.mu.Unlock()
	if pipeline == nil {
		return
	}
	if err := pipeline.SetState(gst.StatePaused); err != nil {
		h.log.Warn("playbin pause failed", zap.Error(err))
	}
}

// SeekStart rewinds by cycling the pipeline through NULL; the following Play
// re-prerolls from the head of the media.
func (h *handle) SeekStart() {
	h.mu.Lock()
	pipeline := h.pipeline
	h.mu.Unlock()
	if pipeline == nil {
		return
	}
	if err := pipeline.SetState(gst.StateNull); err != nil {
		h.log.Warn("playbin rewind failed", zap.Error(err))
	}
}

func (h *handle) Detach() {
	h.mu.Lock()
	pipeline := h.pipeline
	cancel := h.cancel
	h.pipeline = nil
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pipeline != nil {
		_ = pipeline.SetState(gst.StateNull)
	}
}

func (h *handle) Close() error {
	h.Detach()
	return nil
}
