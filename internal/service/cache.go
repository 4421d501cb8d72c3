package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Fannysbth/kel1paw/internal/cache"
)

// cacheRead loads and decodes a cached entry into out. Any cache failure is
// logged and reported as a miss so the caller falls through to the store.
func cacheRead(ctx context.Context, c cache.Cache, key string, out any) bool {
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Warn("Cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// cacheWrite encodes and stores a value under key. Failures are logged and
// swallowed; the response was already computed from the store.
func cacheWrite(ctx context.Context, c cache.Cache, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.SetWithExpiry(ctx, key, string(raw), ttl); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}
