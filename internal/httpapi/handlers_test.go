package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/reelfeed/internal/coordinator"
	"github.com/example/reelfeed/internal/feed"
	"github.com/example/reelfeed/internal/platform/auth"
	"github.com/example/reelfeed/internal/player"
	"github.com/example/reelfeed/internal/prefetch"
	"github.com/example/reelfeed/internal/reactions"
)

type fakeHandle struct {
	ev player.Events
}

func (f *fakeHandle) Load(sourceURL string, ev player.Events) {
	f.ev = ev
	if ev.OnReady != nil {
		ev.OnReady()
	}
}
func (f *fakeHandle) Play()        {}
func (f *fakeHandle) Pause()       {}
func (f *fakeHandle) SeekStart()   {}
func (f *fakeHandle) Detach()      {}
func (f *fakeHandle) Close() error { return nil }

type fakeWarmer struct{}

func (fakeWarmer) Warm(_ context.Context, pos feed.Position, sourceURL string) *prefetch.Asset {
	return prefetch.NewWarmedAsset(pos, sourceURL)
}

type fakeManifest struct {
	items []feed.VideoItem
	err   error
}

func (f *fakeManifest) FetchVideoList(context.Context) ([]feed.VideoItem, error) {
	return f.items, f.err
}

func testItems(n int) []feed.VideoItem {
	items := make([]feed.VideoItem, n)
	for i := range items {
		items[i] = feed.VideoItem{
			ID:        "vid-" + string(rune('a'+i)),
			SourceURL: "https://cdn.example/v" + string(rune('a'+i)) + ".mp4",
			Position:  feed.Position(i),
		}
	}
	return items
}

func newTestServer(t *testing.T, opts Options) (*chi.Mux, *coordinator.Coordinator) {
	t.Helper()
	pool := player.NewPool(func() (player.Handle, error) { return &fakeHandle{}, nil }, nil)
	cache := prefetch.NewCache(fakeWarmer{}, nil)
	coord := coordinator.New(pool, cache, &fakeManifest{items: testItems(3)},
		coordinator.WithPlaybackDebounce(time.Millisecond),
		coordinator.WithPrefetchDebounce(time.Millisecond),
	)
	t.Cleanup(coord.CleanUp)

	coord.LoadVideos(context.Background())
	waitLoaded(t, coord)

	if opts.Pool == nil {
		opts.Pool = pool
	}
	h := NewHandlers(coord, opts)
	r := chi.NewRouter()
	h.Mount(r)
	return r, coord
}

func waitLoaded(t *testing.T, coord *coordinator.Coordinator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if coord.State(false).LoadState == "loaded" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("feed never reached loaded state")
}

func TestGetFeed(t *testing.T) {
	r, _ := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?items=1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap coordinator.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.LoadState != "loaded" {
		t.Fatalf("expected loaded, got %q", snap.LoadState)
	}
	if snap.ItemCount != 3 || len(snap.Items) != 3 {
		t.Fatalf("expected 3 items, got count=%d len=%d", snap.ItemCount, len(snap.Items))
	}
}

func TestSetPosition(t *testing.T) {
	r, coord := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPut, "/v1/playback/position", strings.NewReader(`{"position":2}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := coord.State(false).Position; got != 2 {
		t.Fatalf("expected position 2, got %d", got)
	}
}

func TestSetPosition_Negative(t *testing.T) {
	r, _ := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPut, "/v1/playback/position", strings.NewReader(`{"position":-1}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSetScrollingAndFocus(t *testing.T) {
	r, coord := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPut, "/v1/playback/scrolling", strings.NewReader(`{"scrolling":true}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("scrolling: expected 204, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/v1/playback/focus", strings.NewReader(`{"focused":true}`))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("focus: expected 204, got %d", rr.Code)
	}

	snap := coord.State(false)
	if !snap.Scrolling || !snap.InputFocused {
		t.Fatalf("expected scrolling and focused, got %+v", snap)
	}
}

func TestAcquireAndReleasePlayer(t *testing.T) {
	r, _ := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/players/0", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("acquire: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/players/0", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("release: expected 204, got %d", rr.Code)
	}
}

func TestAcquirePlayer_OutOfRange(t *testing.T) {
	r, _ := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/players/99", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestLifecycleRoutes(t *testing.T) {
	r, coord := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/lifecycle/background", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("background: expected 204, got %d", rr.Code)
	}
	if coord.State(false).Foreground {
		t.Fatal("expected backgrounded state")
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/lifecycle/foreground", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("foreground: expected 204, got %d", rr.Code)
	}
	if !coord.State(false).Foreground {
		t.Fatal("expected foregrounded state")
	}
}

func TestReactions_PostAndList(t *testing.T) {
	store := reactions.NewMemoryStore()
	r, _ := newTestServer(t, Options{Store: store})

	req := httptest.NewRequest(http.MethodPost, "/v1/feed/1/reactions", strings.NewReader(`{"body":"nice one"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var posted reactions.Reaction
	if err := json.Unmarshal(rr.Body.Bytes(), &posted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if posted.ID == "" || posted.Body != "nice one" {
		t.Fatalf("unexpected reaction: %+v", posted)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/feed/1/reactions", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var out struct {
		Reactions []reactions.Reaction `json:"reactions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Reactions) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(out.Reactions))
	}
}

func TestReactions_EmptyBody(t *testing.T) {
	r, _ := newTestServer(t, Options{Store: reactions.NewMemoryStore()})

	req := httptest.NewRequest(http.MethodPost, "/v1/feed/0/reactions", strings.NewReader(`{"body":"  "}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReactions_Disabled(t *testing.T) {
	r, _ := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/feed/0/reactions", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestAuthGuard(t *testing.T) {
	secret := []byte("guard-secret-32-bytes-long!!!!!!")
	verifier := &auth.JWTVerifier{Secret: secret}
	r, _ := newTestServer(t, Options{Verifier: verifier})

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "viewer-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}
