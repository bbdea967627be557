// Package repository provides data access layer implementations for the engine.
package repository

import (
	"nyx/internal/observability"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// distinct drops blanks and duplicates while keeping first-seen order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// roundTrip counts one storage round trip for port. The returned func
// records its latency against table.
func roundTrip(port, table string) func() {
	observability.RecordRoundTrip(port)
	return observability.TrackQuery(port, table)
}
