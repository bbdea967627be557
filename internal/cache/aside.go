package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"nyx/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside returns the cached value for key, or loads it with fetch and stores
// it for ttl. Concurrent misses on the same key share one fetch, which runs
// detached from the caller's cancellation. Cache failures never fail the call.
func Aside[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if s == nil {
		return fetch(ctx)
	}

	var value T
	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, &value); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return value, nil
		}
		s.Invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		observability.GlobalLogger.WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		loaded, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(loaded); err == nil {
			if err := s.client.Set(fctx, key, payload, ttl).Err(); err != nil {
				observability.GlobalLogger.WarnContext(fctx, "cache write failed",
					slog.String("key", key), slog.String("error", err.Error()))
			}
		}
		return loaded, nil
	})
	if err != nil {
		return value, err
	}
	return v.(T), nil
}
