// go_anvato — Anvato video library MCP server.
//
// Exposes tools to search the Anvato MCP library the way the editor media picker
// does, generate [anvplayer] shortcodes, render them into player embeds and manage
// the stored plugin settings. Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_anvato/internal/anvserver"
	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/explorer"
	"github.com/anatolykoptev/go_anvato/internal/engine/settings"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", slog.Any("error", err))
	}
	mcpPort := env.Str("MCP_PORT", "8893")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig()

	store, err := settings.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		slog.Error("settings store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	if err := seedSettings(ctx, store, cfg.SettingsFile); err != nil {
		slog.Warn("settings seed failed", slog.Any("error", err))
	}

	cache := engine.NewCache(ctx, cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)
	lib := anvato.New(cfg)
	exp := explorer.New(lib, explorer.WithDefaultIcon(env.Str("ANVATO_LIVE_ICON", "")))

	slog.Info("starting go_anvato", slog.String("port", mcpPort))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_anvato",
		Version: version,
	}, nil)

	if err := anvserver.RegisterTools(server, anvserver.Deps{
		Store:    store,
		Library:  lib,
		Explorer: exp,
		Cache:    cache,
	}); err != nil {
		slog.Error("tool registration failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("tools registered", slog.Int("count", anvserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_anvato",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func loadConfig() engine.Config {
	d := engine.DefaultConfig()
	c := engine.Config{
		RequestTimeout:    env.Duration("ANVATO_REQUEST_TIMEOUT", d.RequestTimeout),
		RequestsPerSecond: env.Float("ANVATO_RATE_LIMIT", d.RequestsPerSecond),
		RequestBurst:      env.Int("ANVATO_RATE_BURST", d.RequestBurst),
		Retry: engine.RetryConfig{
			MaxRetries:  env.Int("ANVATO_RETRIES", d.Retry.MaxRetries),
			InitialWait: env.Duration("ANVATO_RETRY_WAIT", d.Retry.InitialWait),
			MaxWait:     env.Duration("ANVATO_RETRY_MAX_WAIT", d.Retry.MaxWait),
			Multiplier:  d.Retry.Multiplier,
		},
		CacheTTL:             env.Duration("CACHE_TTL", d.CacheTTL),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", d.CacheMaxEntries),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", d.CacheCleanupInterval),
		RedisURL:             env.Str("REDIS_URL", ""),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		SQLitePath:           env.Str("SETTINGS_DB", ""),
		SettingsFile:         env.Str("SETTINGS_FILE", "anvato.yaml"),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	return c
}

// seedSettings applies the YAML seed file (when present) and then ANVATO_* env values
// over the stored settings.
func seedSettings(ctx context.Context, store settings.Store, path string) error {
	seed := settings.Settings{}
	if path != "" {
		fileSeed, err := settings.LoadFile(path)
		switch {
		case err == nil:
			seed = fileSeed
			slog.Info("settings: seed file loaded", slog.String("path", path))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}
	seed = seed.Merge(envSettings())
	if seed == (settings.Settings{}) {
		return nil
	}
	s, err := settings.Seed(ctx, store, seed)
	if err != nil {
		return err
	}
	slog.Info("settings: seeded", slog.Bool("configured", s.Credentials().Complete()))
	return nil
}

func envSettings() settings.Settings {
	s := settings.Settings{
		MCPURL:              env.Str("ANVATO_MCP_URL", ""),
		MCPID:               env.Str("ANVATO_MCP_ID", ""),
		Profile:             env.Str("ANVATO_PROFILE", ""),
		StationID:           env.Str("ANVATO_STATION_ID", ""),
		PlayerURL:           env.Str("ANVATO_PLAYER_URL", ""),
		TrackerID:           env.Str("ANVATO_TRACKER_ID", ""),
		AdTag:               env.Str("ANVATO_ADTAG", ""),
		AdobeProfile:        env.Str("ANVATO_ADOBE_PROFILE", ""),
		AdobeAccount:        env.Str("ANVATO_ADOBE_ACCOUNT", ""),
		AdobeTrackingServer: env.Str("ANVATO_ADOBE_TRACKINGSERVER", ""),
		Width:               env.Str("ANVATO_WIDTH", ""),
		Height:              env.Str("ANVATO_HEIGHT", ""),
		PublicKey:           env.Str("ANVATO_PUBLIC_KEY", ""),
		PrivateKey:          env.Str("ANVATO_PRIVATE_KEY", ""),
	}
	if v := env.Str("ANVATO_HTML5", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.HTML5 = &b
		}
	}
	return s
}
