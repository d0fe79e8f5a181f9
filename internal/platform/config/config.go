package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type FeedConfig struct {
	ManifestBaseURL string
	UserAgent       string
}

type PlaybackConfig struct {
	PlaybackDebounce time.Duration
	PrefetchDebounce time.Duration
}

type PrefetchConfig struct {
	CacheDir string
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
}

type SigningConfig struct {
	MediaSecret string
}

type NetConfig struct {
	ProbeInterval time.Duration
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	UserID      string
	HTTP        HTTPConfig
	Feed        FeedConfig
	Playback    PlaybackConfig
	Prefetch    PrefetchConfig
	NATS        NATSConfig
	Auth        AuthConfig
	Signing     SigningConfig
	Net         NetConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		UserID:      strings.TrimSpace(os.Getenv("FEED_USER_ID")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		Feed: FeedConfig{
			ManifestBaseURL: strings.TrimSpace(os.Getenv("FEED_MANIFEST_BASE_URL")),
			UserAgent:       strings.TrimSpace(os.Getenv("FEED_USER_AGENT")),
		},
		Prefetch: PrefetchConfig{
			CacheDir: strings.TrimSpace(os.Getenv("PREFETCH_CACHE_DIR")),
		},
		NATS: NATSConfig{
			URL: strings.TrimSpace(os.Getenv("NATS_URL")),
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
		},
		Signing: SigningConfig{
			MediaSecret: strings.TrimSpace(os.Getenv("MEDIA_SIGNING_SECRET")),
		},
	}

	var err error
	if cfg.Playback.PlaybackDebounce, err = durationMS("PLAYBACK_DEBOUNCE_MS", 200*time.Millisecond); err != nil {
		return AppConfig{}, err
	}
	if cfg.Playback.PrefetchDebounce, err = durationMS("PREFETCH_DEBOUNCE_MS", 100*time.Millisecond); err != nil {
		return AppConfig{}, err
	}
	if cfg.Net.ProbeInterval, err = durationMS("NET_PROBE_INTERVAL_MS", 5000*time.Millisecond); err != nil {
		return AppConfig{}, err
	}

	if cfg.Feed.ManifestBaseURL == "" {
		return AppConfig{}, errors.New("FEED_MANIFEST_BASE_URL is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "reelfeed"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Prefetch.CacheDir == "" {
		cfg.Prefetch.CacheDir = os.TempDir()
	}
	return cfg, nil
}

func durationMS(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer of milliseconds, got %q", key, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
