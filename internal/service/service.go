// Package service implements the follow, block, favorite, feed and author
// workflows on top of the repositories and the access policy.
package service

import (
	"nyx/internal/config"
	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"
)

// Limits bounds page sizes.
type Limits struct {
	FeedDefault int
	FeedMax     int
	ListDefault int
	ListMax     int
}

// DefaultLimits matches the configuration defaults.
var DefaultLimits = Limits{FeedDefault: 20, FeedMax: 50, ListDefault: 20, ListMax: 100}

// LimitsFromConfig reads page bounds from cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	l := DefaultLimits
	if cfg == nil {
		return l
	}
	if cfg.FeedDefaultLimit > 0 {
		l.FeedDefault = cfg.FeedDefaultLimit
	}
	if cfg.FeedMaxLimit > 0 {
		l.FeedMax = cfg.FeedMaxLimit
	}
	if cfg.ListMaxLimit > 0 {
		l.ListMax = cfg.ListMaxLimit
	}
	return l
}

func (l Limits) feed(limit int) int {
	return pagination.NormalizeLimit(limit, l.FeedDefault, l.FeedMax)
}

func (l Limits) list(limit int) int {
	return pagination.NormalizeLimit(limit, l.ListDefault, l.ListMax)
}

// decodeCursor turns a token into a cursor, reporting INVALID_CURSOR on failure.
func decodeCursor(token string) (*pagination.Cursor, error) {
	c, err := pagination.Decode(token)
	if err != nil {
		observability.InvalidCursors.Inc()
		return nil, models.NewMalformedCursorError(err)
	}
	return c, nil
}

func uniqueIDs(n int, id func(int) string) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
