// Package httpapi exposes the feed session over HTTP so a thin rendering
// shell (or an operator poking at a device) can drive playback: position and
// gesture updates come in as requests, feed state and reactions go out as
// JSON.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/coordinator"
	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/platform/api"
	"github.com/example/reelfeed/internal/platform/auth"
	"github.com/example/reelfeed/internal/platform/httpserver"
	"github.com/example/reelfeed/internal/player"
	"github.com/example/reelfeed/internal/reactions"
)

type Handlers struct {
	log       *zap.Logger
	coord     *coordinator.Coordinator
	pool      *player.Pool
	store     reactions.Store
	publisher *reactions.Publisher
	verifier  *auth.JWTVerifier
}

type Options struct {
	Logger    *zap.Logger
	Pool      *player.Pool
	Store     reactions.Store
	Publisher *reactions.Publisher
	// Verifier, when set, puts the whole surface behind bearer auth.
	Verifier *auth.JWTVerifier
}

func NewHandlers(coord *coordinator.Coordinator, opts Options) *Handlers {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		log:       log,
		coord:     coord,
		pool:      opts.Pool,
		store:     opts.Store,
		publisher: opts.Publisher,
		verifier:  opts.Verifier,
	}
}

// Mount registers all routes under /v1.
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		if h.verifier != nil {
			r.Use(auth.RequireUser(*h.verifier))
		}

		r.Get("/feed", h.getFeed)
		r.Post("/feed/reload", h.reloadFeed)
		r.Get("/feed/{position}/reactions", h.listReactions)
		r.Post("/feed/{position}/reactions", h.postReaction)

		r.Put("/playback/position", h.setPosition)
		r.Put("/playback/scrolling", h.setScrolling)
		r.Put("/playback/focus", h.setFocus)
		r.Post("/playback/pause-all", h.pauseAll)

		r.Post("/lifecycle/background", h.background)
		r.Post("/lifecycle/foreground", h.foreground)

		r.Post("/players/{position}", h.acquirePlayer)
		r.Delete("/players/{position}", h.releasePlayer)
	})
}

func (h *Handlers) getFeed(w http.ResponseWriter, r *http.Request) {
	includeItems := strings.TrimSpace(r.URL.Query().Get("items")) == "1"
	api.WriteJSON(w, http.StatusOK, h.coord.State(includeItems))
}

func (h *Handlers) reloadFeed(w http.ResponseWriter, r *http.Request) {
	h.coord.LoadVideos(r.Context())
	api.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
}

type positionBody struct {
	Position int `json:"position"`
}

func (h *Handlers) setPosition(w http.ResponseWriter, r *http.Request) {
	var body positionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "INVALID_BODY", "expected {\"position\": n}", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	if body.Position < 0 {
		api.BadRequest(w, "INVALID_POSITION", "position must be >= 0", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	h.coord.SetPosition(feed.Position(body.Position))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setScrolling(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scrolling bool `json:"scrolling"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "INVALID_BODY", "expected {\"scrolling\": bool}", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	h.coord.SetScrolling(body.Scrolling)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setFocus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Focused bool `json:"focused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "INVALID_BODY", "expected {\"focused\": bool}", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	h.coord.SetInputFocused(body.Focused)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) pauseAll(w http.ResponseWriter, _ *http.Request) {
	h.coord.PauseAllPlayers()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) background(w http.ResponseWriter, _ *http.Request) {
	h.coord.AppDidEnterBackground()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) foreground(w http.ResponseWriter, _ *http.Request) {
	h.coord.AppWillEnterForeground()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) acquirePlayer(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParam(w, r)
	if !ok {
		return
	}
	handle := h.coord.GetPlayer(pos)
	if handle == nil {
		api.NotFound(w, "NO_PLAYER", "no playable item at position", httpserver.RequestIDFromContext(r.Context()))
		return
	}
	resp := map[string]any{"position": int(pos)}
	if h.pool != nil {
		resp["ready"] = h.pool.IsReady(pos)
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handlers) releasePlayer(w http.ResponseWriter, r *http.Request) {
	pos, ok := positionParam(w, r)
	if !ok {
		return
	}
	h.coord.ReleasePlayer(pos)
	w.WriteHeader(http.StatusNoContent)
}

type reactionBody struct {
	Body string `json:"body"`
}

func (h *Handlers) postReaction(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	if h.store == nil {
		api.Unavailable(w, "REACTIONS_DISABLED", "reactions are not enabled", rid)
		return
	}
	pos, ok := positionParam(w, r)
	if !ok {
		return
	}
	item, ok := h.itemAt(pos)
	if !ok {
		api.NotFound(w, "NO_ITEM", "no item at position", rid)
		return
	}

	var body reactionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Body) == "" {
		api.BadRequest(w, "INVALID_BODY", "expected {\"body\": text}", rid, nil)
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	reaction := reactions.Reaction{
		VideoID:  item.ID,
		Position: pos,
		UserID:   uid,
		Body:     strings.TrimSpace(body.Body),
	}
	stored, err := h.store.Add(r.Context(), reaction)
	if err != nil {
		h.log.Error("reaction store failed", zap.String("video_id", item.ID), zap.Error(err))
		api.Internal(w, rid)
		return
	}
	h.publisher.Publish(stored)
	api.WriteJSON(w, http.StatusCreated, stored)
}

func (h *Handlers) listReactions(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	if h.store == nil {
		api.Unavailable(w, "REACTIONS_DISABLED", "reactions are not enabled", rid)
		return
	}
	pos, ok := positionParam(w, r)
	if !ok {
		return
	}
	item, ok := h.itemAt(pos)
	if !ok {
		api.NotFound(w, "NO_ITEM", "no item at position", rid)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	list, err := h.store.Recent(r.Context(), item.ID, limit)
	if err != nil {
		h.log.Error("reaction list failed", zap.String("video_id", item.ID), zap.Error(err))
		api.Internal(w, rid)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reactions": list})
}

func (h *Handlers) itemAt(pos feed.Position) (feed.VideoItem, bool) {
	items := h.coord.State(true).Items
	if int(pos) < 0 || int(pos) >= len(items) {
		return feed.VideoItem{}, false
	}
	return items[pos], true
}

func positionParam(w http.ResponseWriter, r *http.Request) (feed.Position, bool) {
	raw := chi.URLParam(r, "position")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		api.BadRequest(w, "INVALID_POSITION", "position must be a non-negative integer", httpserver.RequestIDFromContext(r.Context()), nil)
		return 0, false
	}
	return feed.Position(n), true
}
