package main

import (
	"context"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/coordinator"
	"github.com/example/reelfeed/internal/feed/manifest"
	"github.com/example/reelfeed/internal/httpapi"
	"github.com/example/reelfeed/internal/netmon"
	"github.com/example/reelfeed/internal/platform/auth"
	"github.com/example/reelfeed/internal/platform/config"
	"github.com/example/reelfeed/internal/platform/httpserver"
	"github.com/example/reelfeed/internal/platform/logging"
	"github.com/example/reelfeed/internal/platform/natsconn"
	"github.com/example/reelfeed/internal/platform/run"
	"github.com/example/reelfeed/internal/platform/signing"
	"github.com/example/reelfeed/internal/player"
	"github.com/example/reelfeed/internal/player/gstplayer"
	"github.com/example/reelfeed/internal/prefetch"
	"github.com/example/reelfeed/internal/reactions"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// manifest client
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "manifest",
		Timeout: 30 * time.Second,
	})
	manifestOpts := []manifest.Option{
		manifest.WithCircuitBreaker(cb),
		manifest.WithLogger(log),
	}
	if cfg.Signing.MediaSecret != "" {
		manifestOpts = append(manifestOpts,
			manifest.WithSigner(signing.New(cfg.Signing.MediaSecret), cfg.UserID))
	}
	source := manifest.New(cfg.Feed.ManifestBaseURL,
		manifest.ClientConfig{UserAgent: cfg.Feed.UserAgent}, manifestOpts...)

	// playback triad
	pool := player.NewPool(gstplayer.NewFactory(log), log)

	warmer, err := prefetch.NewS3Warmer(cfg.Prefetch.CacheDir, log)
	if err != nil {
		log.Error("init warmer", zap.Error(err))
		run.Exit(1)
	}
	cache := prefetch.NewCache(warmer, log)

	coord := coordinator.New(pool, cache, source,
		coordinator.WithPlaybackDebounce(cfg.Playback.PlaybackDebounce),
		coordinator.WithPrefetchDebounce(cfg.Playback.PrefetchDebounce),
		coordinator.WithLogger(log),
	)

	// network monitor feeds the prefetch strategy
	monitor := netmon.NewMonitor(log)
	monitor.Subscribe(cache.ApplyStrategy)

	// reactions, optional: no NATS URL means local-only
	store := reactions.NewMemoryStore()
	var publisher *reactions.Publisher
	if cfg.NATS.URL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATS.URL})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		js, err := nc.JetStream(nats.PublishAsyncMaxPending(64))
		if err != nil {
			log.Error("jetstream", zap.Error(err))
			run.Exit(1)
		}
		publisher = reactions.NewPublisher(js, log)
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error { return nil },
	})

	handlerOpts := httpapi.Options{
		Logger:    log,
		Pool:      pool,
		Store:     store,
		Publisher: publisher,
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		handlerOpts.Verifier = &auth.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret)}
	}
	httpapi.NewHandlers(coord, handlerOpts).Mount(r)

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.HTTP.Addr,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Router:      r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go netmon.Probe(ctx, monitor, cfg.Net.ProbeInterval)

		coord.LoadVideos(ctx)

		go func() {
			<-ctx.Done()
			coord.CleanUp()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
