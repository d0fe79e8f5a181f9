// Package feed holds the domain model of the vertical video feed: positions,
// video items, load state and the feed-level error taxonomy.
package feed

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Position is a zero-based index identifying a video's slot in the current
// feed. Positions are assigned at manifest decode and are stable for the
// lifetime of that load.
type Position int

// VideoItem is one entry of the feed. SourceURL is empty when the manifest
// entry did not carry a usable address; such items are terminal and can
// never produce a player.
type VideoItem struct {
	ID        string   `json:"id"`
	SourceURL string   `json:"source_url,omitempty"`
	Position  Position `json:"position"`
}

// Playable reports whether the item carries a valid source address.
func (v VideoItem) Playable() bool { return v.SourceURL != "" }

// ManifestEntry is the raw shape delivered by the manifest collaborator.
type ManifestEntry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ItemsFromManifest converts raw manifest entries into the session's video
// list. Entries with an unparsable address keep their slot with an empty
// SourceURL rather than being dropped, so positions stay aligned with the
// manifest order. Entries without an id get a generated one.
func ItemsFromManifest(entries []ManifestEntry) []VideoItem {
	items := make([]VideoItem, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = uuid.NewString()
		}
		items = append(items, VideoItem{
			ID:        id,
			SourceURL: normalizeSourceURL(e.URL),
			Position:  Position(i),
		})
	}
	return items
}

func normalizeSourceURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.String()
}

// LoadState tracks the feed-level lifecycle of the video list.
type LoadState int

const (
	// LoadStateIdle means LoadVideos has not been invoked yet.
	LoadStateIdle LoadState = iota
	LoadStateLoading
	LoadStateLoaded
	LoadStateError
)

func (s LoadState) String() string {
	switch s {
	case LoadStateIdle:
		return "idle"
	case LoadStateLoading:
		return "loading"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateError:
		return "error"
	default:
		return "unknown"
	}
}
