package reactions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxPerVideo bounds how many reactions are retained per video; older ones
// roll off.
const maxPerVideo = 200

// MemoryStore is the in-process reaction store. Reactions are session-scoped
// like the rest of the feed state, so memory is the only backend.
type MemoryStore struct {
	mu      sync.RWMutex
	byVideo map[string][]Reaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byVideo: make(map[string][]Reaction)}
}

func (s *MemoryStore) Add(_ context.Context, r Reaction) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()
	list := append(s.byVideo[r.VideoID], r)
	if len(list) > maxPerVideo {
		list = list[len(list)-maxPerVideo:]
	}
	s.byVideo[r.VideoID] = list
	return r, nil
}

// Recent returns up to limit reactions for videoID, newest first.
func (s *MemoryStore) Recent(_ context.Context, videoID string, limit int) ([]Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > maxPerVideo {
		limit = 50
	}
	list := s.byVideo[videoID]
	if len(list) == 0 {
		return []Reaction{}, nil
	}
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]Reaction, len(list))
	for i, r := range list {
		out[len(list)-1-i] = r
	}
	return out, nil
}
