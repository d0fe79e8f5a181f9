package prefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
)

// warmByteLimit bounds how much of the media head a single warm fetches.
// Enough to cover moov/init segments for typical short-form encodes.
const warmByteLimit = 512 * 1024

// HTTPWarmer warms a source by fetching the head of the media over a ranged
// GET, priming DNS, the TLS session and the CDN edge cache.
type HTTPWarmer struct {
	HTTPClient *http.Client
	Log        *zap.Logger
}

// NewHTTPWarmer builds a warmer with a bounded-timeout client.
func NewHTTPWarmer(log *zap.Logger) *HTTPWarmer {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPWarmer{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Log:        log,
	}
}

// Warm implements Warmer. The returned asset is registered immediately;
// fetching continues in the background and is never cancelled on eviction
// (bounded waste, reclaimed by the eviction pass).
func (w *HTTPWarmer) Warm(ctx context.Context, pos feed.Position, sourceURL string) *Asset {
	a := &Asset{Position: pos, URL: sourceURL}
	go func() {
		a.complete("", w.fetchHead(ctx, sourceURL))
	}()
	return a
}

func (w *HTTPWarmer) fetchHead(ctx context.Context, sourceURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", warmByteLimit-1))

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		w.Log.Debug("asset warm failed", zap.String("url", sourceURL), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		err := fmt.Errorf("warm fetch status %d", resp.StatusCode)
		w.Log.Debug("asset warm failed", zap.String("url", sourceURL), zap.Error(err))
		return err
	}

	n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, warmByteLimit))
	if err != nil {
		return err
	}
	w.Log.Debug("asset warmed", zap.String("url", sourceURL), zap.Int64("bytes", n))
	return nil
}
