// Package toolutil provides shared helpers for go_anvato MCP tools.
package toolutil

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
)

// NormType normalises a picker type: empty string → "vod".
func NormType(typ string) string {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		return "vod"
	}
	return typ
}

// Cached returns the cached value for key, or runs fn and caches its result.
// Errors are never cached.
func Cached[T any](ctx context.Context, c *engine.Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if out, ok := engine.CacheLoadJSON[T](ctx, c, key); ok {
		return out, nil
	}
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	engine.CacheStoreJSON(ctx, c, key, out)
	return out, nil
}

// PublicError strips the underlying cause from library errors before they reach
// the caller; transport causes carry the signed request URL. The full error is logged.
func PublicError(tool string, err error) error {
	if err == nil {
		return nil
	}
	var ae *anvato.Error
	if !errors.As(err, &ae) {
		return err
	}
	slog.Warn(tool+": library error", slog.String("kind", ae.Kind.String()), slog.Any("error", err))
	return &anvato.Error{Kind: ae.Kind, Message: ae.Message}
}
