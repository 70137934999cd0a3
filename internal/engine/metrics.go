package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the service.
var metrics struct {
	APIRequests       atomic.Int64
	APIErrors         atomic.Int64
	TransportErrors   atomic.Int64
	ParseErrors       atomic.Int64
	MissingSettings   atomic.Int64
	ExplorerRequests  atomic.Int64
	ExplorerNoResults atomic.Int64
	EmbedsRendered    atomic.Int64
	SettingsUpdates   atomic.Int64
}

var metricKeys = []string{
	"api_requests", "api_errors", "transport_errors", "parse_errors", "missing_settings",
	"explorer_requests", "explorer_no_results",
	"embeds_rendered", "settings_updates",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"api_requests":        metrics.APIRequests.Load(),
		"api_errors":          metrics.APIErrors.Load(),
		"transport_errors":    metrics.TransportErrors.Load(),
		"parse_errors":        metrics.ParseErrors.Load(),
		"missing_settings":    metrics.MissingSettings.Load(),
		"explorer_requests":   metrics.ExplorerRequests.Load(),
		"explorer_no_results": metrics.ExplorerNoResults.Load(),
		"embeds_rendered":     metrics.EmbedsRendered.Load(),
		"settings_updates":    metrics.SettingsUpdates.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the anvato client.
func IncrAPIRequests()     { metrics.APIRequests.Add(1) }
func IncrAPIErrors()       { metrics.APIErrors.Add(1) }
func IncrTransportErrors() { metrics.TransportErrors.Add(1) }
func IncrParseErrors()     { metrics.ParseErrors.Add(1) }
func IncrMissingSettings() { metrics.MissingSettings.Add(1) }

// Incrementors for explorer, shortcode and settings.
func IncrExplorerRequests()  { metrics.ExplorerRequests.Add(1) }
func IncrExplorerNoResults() { metrics.ExplorerNoResults.Add(1) }
func IncrEmbedsRendered()    { metrics.EmbedsRendered.Add(1) }
func IncrSettingsUpdates()   { metrics.SettingsUpdates.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if elapsed := time.Since(start); elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
