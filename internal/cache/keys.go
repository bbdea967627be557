package cache

import (
	"context"
	"time"
)

// PublicOwnersKey holds the JSON list of owner ids whose profile is public.
const PublicOwnersKey = "owners:public"

// DefaultPublicOwnersTTL applies when no TTL is configured.
const DefaultPublicOwnersTTL = time.Minute

// InvalidatePublicOwners drops the cached public owner id list.
func (s *Store) InvalidatePublicOwners(ctx context.Context) {
	s.Invalidate(ctx, PublicOwnersKey)
}
