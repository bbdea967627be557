package service

import (
	"context"
	"log/slog"
	"time"

	"nyx/internal/cache"
	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"
	"nyx/internal/policy"
	"nyx/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedFilter selects which owners feed a page.
type FeedFilter string

const (
	// FeedAll covers public owners plus the owners the viewer follows.
	FeedAll FeedFilter = "all"
	// FeedFollowing covers only the owners the viewer follows with approval.
	FeedFollowing FeedFilter = "following"
	// FeedFavorites covers only the owners the viewer saved.
	FeedFavorites FeedFilter = "favorites"
)

// Valid reports whether f is a known filter.
func (f FeedFilter) Valid() bool {
	switch f {
	case FeedAll, FeedFollowing, FeedFavorites:
		return true
	}
	return false
}

// FeedRequest describes one feed page. BlockedOwnerIDs, when set, replaces
// the block lookup used to narrow candidates.
type FeedRequest struct {
	Viewer          models.Viewer
	Filter          FeedFilter
	Cursor          string
	Limit           int
	BlockedOwnerIDs []string
}

// FeedEntry is one visible item with its author.
type FeedEntry struct {
	Item   models.Item       `json:"item"`
	Author models.AuthorView `json:"author"`
}

// FeedPage is one page of a feed. InvalidCursor is set, with no items, when
// the request carried a token that could not be decoded.
type FeedPage struct {
	Items         []FeedEntry `json:"items"`
	HasMore       bool        `json:"has_more"`
	NextCursor    string      `json:"next_cursor,omitempty"`
	InvalidCursor bool        `json:"invalid_cursor,omitempty"`
}

// FeedItemSource fetches candidate items in keyset order.
type FeedItemSource interface {
	ListFeed(ctx context.Context, q repository.FeedQuery) ([]models.Item, error)
}

// OwnerDirectory reads owner profiles and the public owner list.
type OwnerDirectory interface {
	OwnersByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
	PublicOwnerIDs(ctx context.Context) ([]string, error)
}

// FollowingSource lists approved follows of a viewer.
type FollowingSource interface {
	FollowingOwnerIDs(ctx context.Context, viewerID string) ([]string, error)
}

// FavoriteSource lists owners a viewer saved.
type FavoriteSource interface {
	OwnerIDs(ctx context.Context, viewerID string) ([]string, error)
}

// FeedService assembles visibility-checked feed pages.
type FeedService struct {
	items     FeedItemSource
	owners    OwnerDirectory
	following FollowingSource
	favorites FavoriteSource
	blocks    policy.BlockReader
	policy    *policy.AccessPolicy
	authors   *AuthorAggregator
	store     *cache.Store
	ttl       time.Duration
	limits    Limits
	logger    *observability.StructuredLogger
}

// FeedDeps groups FeedService collaborators.
type FeedDeps struct {
	Items     FeedItemSource
	Owners    OwnerDirectory
	Following FollowingSource
	Favorites FavoriteSource
	Blocks    policy.BlockReader
	Policy    *policy.AccessPolicy
	Authors   *AuthorAggregator
	Cache     *cache.Store
	CacheTTL  time.Duration
	Limits    Limits
}

// NewFeedService returns a new FeedService.
func NewFeedService(d FeedDeps) *FeedService {
	ttl := d.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultPublicOwnersTTL
	}
	return &FeedService{
		items:     d.Items,
		owners:    d.Owners,
		following: d.Following,
		favorites: d.Favorites,
		blocks:    d.Blocks,
		policy:    d.Policy,
		authors:   d.Authors,
		store:     d.Cache,
		ttl:       ttl,
		limits:    d.Limits,
		logger:    observability.NewStructuredLogger(),
	}
}

func emptyFeed() FeedPage {
	return FeedPage{Items: []FeedEntry{}}
}

// Assemble builds one page: resolve candidate owners, fetch limit+1 items,
// fix the page window, re-check every item against the access policy and
// attach authors.
func (s *FeedService) Assemble(ctx context.Context, req FeedRequest) (FeedPage, error) {
	if req.Filter == "" {
		req.Filter = FeedAll
	}
	if !req.Filter.Valid() {
		return FeedPage{}, models.NewValidationError("unknown feed filter " + string(req.Filter))
	}

	cursor, err := pagination.Decode(req.Cursor)
	if err != nil {
		observability.InvalidCursors.Inc()
		page := emptyFeed()
		page.InvalidCursor = true
		return page, nil
	}

	defer observability.TrackFeed(string(req.Filter))()
	ctx = observability.EnsureCorrelationID(ctx)
	ctx, span := observability.StartSpan(ctx, "feed", "assemble",
		attribute.String("filter", string(req.Filter)),
		attribute.Bool("anonymous", req.Viewer.IsAnonymous()),
	)
	defer span.End()

	s.logger.LogServiceCall(ctx, "FeedService", "Assemble", map[string]interface{}{
		"filter": req.Filter,
		"viewer": req.Viewer.ID,
	})

	page, err := s.assemble(ctx, req, cursor)
	if err != nil {
		span.SetError(err)
		s.logger.LogServiceError(ctx, "FeedService", "Assemble", err)
		return FeedPage{}, err
	}
	span.AddAttributes(attribute.Int("items", len(page.Items)))
	return page, nil
}

func (s *FeedService) assemble(ctx context.Context, req FeedRequest, cursor *pagination.Cursor) (FeedPage, error) {
	limit := s.limits.feed(req.Limit)

	query, ok, err := s.candidates(ctx, req)
	if err != nil || !ok {
		return emptyFeed(), err
	}
	query.Cursor = cursor
	query.Limit = limit

	rows, err := s.items.ListFeed(ctx, query)
	if err != nil {
		return FeedPage{}, err
	}
	window := pagination.Paginate(rows, limit)

	ownerIDs := uniqueIDs(len(window.Items), func(i int) string { return window.Items[i].OwnerID })
	owners, err := s.owners.OwnersByIDs(ctx, ownerIDs)
	if err != nil {
		return FeedPage{}, err
	}

	// Items whose owner record is gone cannot be evaluated and are dropped here.
	evaluable := make([]models.Item, 0, len(window.Items))
	for _, item := range window.Items {
		if _, ok := owners[item.OwnerID]; ok {
			evaluable = append(evaluable, item)
			continue
		}
		observability.GlobalLogger.WarnContext(ctx, "feed item without owner record",
			slog.String("item_id", item.ID), slog.String("owner_id", item.OwnerID))
	}

	visible, err := s.policy.FilterViewable(ctx, evaluable, owners, req.Viewer)
	if err != nil {
		return FeedPage{}, err
	}
	if dropped := len(window.Items) - len(visible); dropped > 0 {
		observability.FeedItemsDropped.WithLabelValues(string(req.Filter)).Add(float64(dropped))
	}

	views, err := s.authors.Load(ctx, uniqueIDs(len(visible), func(i int) string { return visible[i].OwnerID }))
	if err != nil {
		return FeedPage{}, err
	}

	entries := make([]FeedEntry, len(visible))
	for i, item := range visible {
		entries[i] = FeedEntry{Item: item, Author: authorOf(views, item.OwnerID, models.RoleOwner)}
	}
	return FeedPage{Items: entries, HasMore: window.HasMore, NextCursor: window.NextCursor}, nil
}

// candidates resolves the owner sets for the filter. ok is false when no
// owner can qualify, so the item query can be skipped.
func (s *FeedService) candidates(ctx context.Context, req FeedRequest) (repository.FeedQuery, bool, error) {
	var q repository.FeedQuery
	anonymous := req.Viewer.IsAnonymous()
	if anonymous && req.Filter != FeedAll {
		return q, false, nil
	}

	if !anonymous {
		excluded := req.BlockedOwnerIDs
		if excluded == nil {
			ids, err := s.blocks.BlockedOwnerIDs(ctx, req.Viewer.ID)
			if err != nil {
				return q, false, err
			}
			excluded = ids
		}
		q.ExcludedOwnerIDs = excluded
	}

	switch req.Filter {
	case FeedAll:
		public, err := s.publicOwnerIDs(ctx)
		if err != nil {
			return q, false, err
		}
		q.PublicOwnerIDs = public
		if !anonymous {
			followed, err := s.following.FollowingOwnerIDs(ctx, req.Viewer.ID)
			if err != nil {
				return q, false, err
			}
			q.FollowedOwnerIDs = followed
		}
	case FeedFollowing:
		followed, err := s.following.FollowingOwnerIDs(ctx, req.Viewer.ID)
		if err != nil {
			return q, false, err
		}
		q.FollowedOwnerIDs = followed
	case FeedFavorites:
		saved, err := s.favorites.OwnerIDs(ctx, req.Viewer.ID)
		if err != nil {
			return q, false, err
		}
		if len(saved) == 0 {
			return q, false, nil
		}
		followed, err := s.following.FollowingOwnerIDs(ctx, req.Viewer.ID)
		if err != nil {
			return q, false, err
		}
		// Saved owners contribute their public items, or everything when followed.
		q.PublicOwnerIDs = saved
		q.FollowedOwnerIDs = intersect(saved, followed)
	}

	return q, len(q.PublicOwnerIDs) > 0 || len(q.FollowedOwnerIDs) > 0, nil
}

func (s *FeedService) publicOwnerIDs(ctx context.Context) ([]string, error) {
	return cache.Aside(ctx, s.store, cache.PublicOwnersKey, s.ttl, s.owners.PublicOwnerIDs)
}

func intersect(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, id := range b {
		in[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := in[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
