// Package manifest fetches the feed's video list from the manifest service.
// One fetch per LoadVideos call; no automatic retry beyond the in-call
// backoff attempts.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/platform/signing"
)

// ClientConfig holds configurable settings for the manifest client.
type ClientConfig struct {
	UserAgent      string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Client talks to the manifest endpoint over HTTP/JSON.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Config     ClientConfig
	CB         *gobreaker.CircuitBreaker
	Signer     *signing.Signer
	UserID     string
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithCircuitBreaker guards the fetch with a breaker.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

// WithSigner makes the client attach playback signatures to every item's
// source URL, for CDNs that require them.
func WithSigner(s *signing.Signer, userID string) Option {
	return func(c *Client) {
		c.Signer = s
		c.UserID = userID
	}
}

// New builds a manifest client.
func New(baseURL string, cfg ClientConfig, opts ...Option) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "reelfeed/1.0"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type manifestResponse struct {
	Videos []feed.ManifestEntry `json:"videos"`
}

// FetchVideoList retrieves and decodes the manifest. Entries with bad
// addresses survive as unplayable items; feed-level failures come back as
// *feed.Error with a classification the coordinator stores in load state.
func (c *Client) FetchVideoList(ctx context.Context) ([]feed.VideoItem, error) {
	fetch := func() (any, error) { return c.fetchOnce(ctx) }

	var (
		raw any
		err error
	)
	if c.CB != nil {
		raw, err = c.CB.Execute(fetch)
	} else {
		raw, err = fetch()
	}
	if err != nil {
		return nil, err
	}
	entries := raw.([]feed.ManifestEntry)

	items := feed.ItemsFromManifest(entries)
	if c.Signer != nil {
		items = c.signItems(items)
	}
	return items, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]feed.ManifestEntry, error) {
	var lastErr error
	for attempt := 0; attempt < c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.Config.RetryBaseDelay
			select {
			case <-ctx.Done():
				return nil, feed.NewError(feed.ClassifyTransport(ctx.Err()), ctx.Err())
			case <-time.After(delay):
			}
		}

		entries, err := c.doRequest(ctx)
		if err == nil {
			return entries, nil
		}
		lastErr = err

		// Malformed payloads will not fix themselves on retry.
		if feed.KindOf(err) == feed.KindMalformedResponse {
			return nil, err
		}
		c.Log.Debug("manifest fetch attempt failed",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context) ([]feed.ManifestEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/videos", nil)
	if err != nil {
		return nil, feed.NewError(feed.KindUnexpected, err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, feed.NewError(feed.ClassifyTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("manifest status %d", resp.StatusCode)
		return nil, feed.NewError(feed.KindTransportFailure, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, feed.NewError(feed.ClassifyTransport(err), err)
	}

	var out manifestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, feed.NewError(feed.KindMalformedResponse, err)
	}
	return out.Videos, nil
}

// signItems stamps a short-lived playback signature onto each playable URL.
func (c *Client) signItems(items []feed.VideoItem) []feed.VideoItem {
	exp := time.Now().Add(time.Hour)
	for i, it := range items {
		if !it.Playable() {
			continue
		}
		signed, err := c.Signer.SignedSourceURL(it.SourceURL, c.UserID, exp)
		if err != nil {
			c.Log.Warn("source signing failed", zap.String("id", it.ID), zap.Error(err))
			continue
		}
		items[i].SourceURL = signed
	}
	return items
}
