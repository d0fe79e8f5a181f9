// Package player manages the bounded pool of reusable media-player handles:
// assignment to feed positions, per-binding readiness tracking, playback
// commands and automatic looping.
package player

// Events carries the one-shot callbacks a handle arms for its current
// binding. A backend must invoke OnReady at most once per Load, when the
// bound source has finished preparing, and OnEnd each time playback reaches
// the end of the media. Callbacks from a superseded binding are discarded by
// the pool via generation compare, so backends need not guarantee silence
// after Detach.
type Events struct {
	OnReady func()
	OnEnd   func()
}

// Handle is an opaque, expensive-to-create media player resource. Handles
// are reused: Load rebinds the handle to a new source and must drop the
// previous source and callbacks.
type Handle interface {
	// Load binds the handle to a source and begins asynchronous
	// preparation. ev replaces any previously armed callbacks.
	Load(sourceURL string, ev Events)

	// Play starts audio/video output. Only meaningful once the current
	// binding reported ready; backends may ignore earlier calls.
	Play()

	// Pause halts output, keeping the binding.
	Pause()

	// SeekStart rewinds the current binding to the beginning.
	SeekStart()

	// Detach unbinds the source and disarms callbacks. The handle stays
	// usable for a later Load.
	Detach()

	// Close releases the underlying resource. The handle must not be used
	// afterwards.
	Close() error
}

// Factory constructs a fresh handle. Any process-wide media-stack
// initialization (the audio-session equivalent) is owned by the factory, not
// performed ambiently, so tests can construct pools from fake factories
// without touching global state.
type Factory func() (Handle, error)
