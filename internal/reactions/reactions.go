// Package reactions carries the feed's text/reaction messages: a
// fire-and-forget NATS publisher for outbound messages and a bounded
// in-memory store of what was recently posted per video.
package reactions

import (
	"context"
	"time"

	"github.com/example/reelfeed/internal/feed"
)

// Reaction is one text or emoji message attached to a feed video.
type Reaction struct {
	ID        string        `json:"id"`
	VideoID   string        `json:"video_id"`
	Position  feed.Position `json:"position"`
	UserID    string        `json:"user_id,omitempty"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store defines the contract for reaction persistence.
type Store interface {
	Add(ctx context.Context, r Reaction) (Reaction, error)
	Recent(ctx context.Context, videoID string, limit int) ([]Reaction, error)
}
