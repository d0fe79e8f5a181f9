// Package prefetch maintains a rolling window of pre-warmed media assets
// around the current feed position, sized by the network-derived prefetch
// strategy.
package prefetch

import (
	"context"
	"sync"

	"github.com/example/reelfeed/internal/feed"
)

// Asset is a pre-warmed source handle. Warming runs in the background; an
// asset that never finishes warming is simply evicted when it leaves the
// window. Assets are a separate concept from player handles: a warmed asset
// may never become an active player.
type Asset struct {
	Position feed.Position
	URL      string

	mu        sync.Mutex
	warmed    bool
	localPath string
	err       error
}

// Warmed reports whether background preparation has completed successfully.
func (a *Asset) Warmed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.warmed
}

// LocalPath returns the on-disk location of the warmed media, if the warmer
// produced one (the S3 warmer does, the HTTP warmer does not).
func (a *Asset) LocalPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.localPath
}

// Err returns the warming failure, if any. Warming failures are terminal for
// the asset but never surface as feed-level errors.
func (a *Asset) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Asset) complete(localPath string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.err = err
		return
	}
	a.warmed = true
	a.localPath = localPath
}

// NewWarmedAsset returns an asset already marked warmed, skipping background
// preparation. Fake warmers in tests use it.
func NewWarmedAsset(pos feed.Position, sourceURL string) *Asset {
	a := &Asset{Position: pos, URL: sourceURL}
	a.complete("", nil)
	return a
}

// Warmer begins asynchronous preparation of a source and returns its asset
// handle immediately.
type Warmer interface {
	Warm(ctx context.Context, pos feed.Position, sourceURL string) *Asset
}
