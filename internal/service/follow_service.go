package service

import (
	"context"
	"time"

	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"
	"nyx/internal/repository"
)

// OwnerLookup finds a single owner profile.
type OwnerLookup interface {
	GetOwner(ctx context.Context, id string) (*models.OwnerProfile, error)
}

// BlockedViewerLister lists the viewers an owner has blocked.
type BlockedViewerLister interface {
	BlockedIDs(ctx context.Context, blockerID string, blockedType models.Role) ([]string, error)
}

// FollowEntry is one follow edge rendered with the other party's identity.
type FollowEntry struct {
	OwnerID   string              `json:"owner_id"`
	ViewerID  string              `json:"viewer_id"`
	Status    models.FollowStatus `json:"status"`
	Author    models.AuthorView   `json:"author"`
	CreatedAt time.Time           `json:"created_at"`
}

// FollowerPage is a page of followers plus the total after exclusions.
type FollowerPage struct {
	pagination.Page[FollowEntry]
	Total int64 `json:"total"`
}

// FollowService provides the follow request workflow.
type FollowService struct {
	follows repository.FollowRepository
	owners  OwnerLookup
	blocks  BlockedViewerLister
	authors *AuthorAggregator
	limits  Limits
	logger  *observability.StructuredLogger
}

// NewFollowService returns a new FollowService.
func NewFollowService(follows repository.FollowRepository, owners OwnerLookup, blocks BlockedViewerLister, authors *AuthorAggregator, limits Limits) *FollowService {
	return &FollowService{
		follows: follows,
		owners:  owners,
		blocks:  blocks,
		authors: authors,
		limits:  limits,
		logger:  observability.NewStructuredLogger(),
	}
}

func validatePair(ownerID, viewerID string) error {
	if ownerID == "" || viewerID == "" {
		return models.NewValidationError("owner and viewer are required")
	}
	if ownerID == viewerID {
		return models.NewValidationError("Cannot follow yourself")
	}
	return nil
}

// Follow creates an approved edge, or reports the edge already present.
func (s *FollowService) Follow(ctx context.Context, ownerID, viewerID string) (models.FollowOutcome, error) {
	if err := validatePair(ownerID, viewerID); err != nil {
		return models.FollowOutcome{}, err
	}
	return s.follows.Create(ctx, ownerID, viewerID, models.FollowStatusApproved)
}

// RequestFollow creates a pending edge, or reports the edge already present.
func (s *FollowService) RequestFollow(ctx context.Context, ownerID, viewerID string) (models.FollowOutcome, error) {
	if err := validatePair(ownerID, viewerID); err != nil {
		return models.FollowOutcome{}, err
	}
	return s.follows.Create(ctx, ownerID, viewerID, models.FollowStatusPending)
}

// FollowOwner follows directly when the owner is public and files a request
// when it is private.
func (s *FollowService) FollowOwner(ctx context.Context, ownerID, viewerID string) (models.FollowOutcome, error) {
	if err := validatePair(ownerID, viewerID); err != nil {
		return models.FollowOutcome{}, err
	}
	ctx = observability.EnsureCorrelationID(ctx)
	owner, err := s.owners.GetOwner(ctx, ownerID)
	if err != nil {
		return models.FollowOutcome{}, err
	}

	s.logger.LogServiceCall(ctx, "FollowService", "FollowOwner", map[string]interface{}{
		"owner_id":   ownerID,
		"visibility": owner.Visibility,
	})
	if owner.IsPublic() {
		return s.Follow(ctx, ownerID, viewerID)
	}
	return s.RequestFollow(ctx, ownerID, viewerID)
}

// ApproveFollow is true when the edge ends up approved, false when none exists.
func (s *FollowService) ApproveFollow(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.follows.Approve(ctx, ownerID, viewerID)
}

// RejectFollow deletes a pending request. Approved edges are left alone.
func (s *FollowService) RejectFollow(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.follows.Delete(ctx, ownerID, viewerID, models.FollowStatusPending)
}

// CancelRequest lets the viewer withdraw their own pending request.
func (s *FollowService) CancelRequest(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.follows.Delete(ctx, ownerID, viewerID, models.FollowStatusPending)
}

// Unfollow deletes the edge whatever its status.
func (s *FollowService) Unfollow(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.follows.Delete(ctx, ownerID, viewerID)
}

// IsFollowing is true only for an approved edge.
func (s *FollowService) IsFollowing(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.follows.IsFollowing(ctx, ownerID, viewerID)
}

// Status reports the edge status, or none.
func (s *FollowService) Status(ctx context.Context, ownerID, viewerID string) (models.FollowStatus, error) {
	edge, err := s.follows.Find(ctx, ownerID, viewerID)
	if err != nil {
		return "", err
	}
	if edge == nil {
		return models.FollowStatusNone, nil
	}
	return edge.Status, nil
}

// StatusBatch reports the status towards every owner. Anonymous viewers get
// none everywhere without a read.
func (s *FollowService) StatusBatch(ctx context.Context, ownerIDs []string, viewer models.Viewer) (map[string]models.FollowStatus, error) {
	if viewer.IsAnonymous() {
		out := make(map[string]models.FollowStatus, len(ownerIDs))
		for _, id := range ownerIDs {
			out[id] = models.FollowStatusNone
		}
		return out, nil
	}
	return s.follows.StatusBatch(ctx, ownerIDs, viewer.ID)
}

// FollowingIDs lists the owners viewerID follows with approval.
func (s *FollowService) FollowingIDs(ctx context.Context, viewerID string) ([]string, error) {
	return s.follows.FollowingOwnerIDs(ctx, viewerID)
}

// PendingCount counts pending requests for ownerID.
func (s *FollowService) PendingCount(ctx context.Context, ownerID string) (int64, error) {
	return s.follows.CountPending(ctx, ownerID)
}

// ApproveAllPending approves every pending request of ownerID at once.
func (s *FollowService) ApproveAllPending(ctx context.Context, ownerID string) (int64, error) {
	return s.follows.ApproveAllPending(ctx, ownerID)
}

// ListPending returns pending requests with the requesting viewers' identities.
func (s *FollowService) ListPending(ctx context.Context, ownerID, cursor string, limit int) (pagination.Page[FollowEntry], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[FollowEntry]{}, err
	}
	limit = s.limits.list(limit)
	rows, err := s.follows.ListPending(ctx, ownerID, c, limit)
	if err != nil {
		return pagination.Page[FollowEntry]{}, err
	}
	return s.render(ctx, pagination.Paginate(rows, limit), true)
}

// ListFollowers returns approved followers of ownerID. Viewers in excluded
// and viewers the owner has blocked are removed before paging.
func (s *FollowService) ListFollowers(ctx context.Context, ownerID string, excluded []string, cursor string, limit int) (FollowerPage, error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return FollowerPage{}, err
	}
	limit = s.limits.list(limit)

	if s.blocks != nil {
		blocked, err := s.blocks.BlockedIDs(ctx, ownerID, models.RoleViewer)
		if err != nil {
			return FollowerPage{}, err
		}
		excluded = append(append([]string{}, excluded...), blocked...)
	}

	total, err := s.follows.CountFollowers(ctx, ownerID, excluded)
	if err != nil {
		return FollowerPage{}, err
	}
	rows, err := s.follows.ListFollowers(ctx, ownerID, excluded, c, limit)
	if err != nil {
		return FollowerPage{}, err
	}
	page, err := s.render(ctx, pagination.Paginate(rows, limit), true)
	if err != nil {
		return FollowerPage{}, err
	}
	return FollowerPage{Page: page, Total: total}, nil
}

// ListFollowing returns the owners viewerID follows with their identities.
func (s *FollowService) ListFollowing(ctx context.Context, viewerID, cursor string, limit int) (pagination.Page[FollowEntry], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[FollowEntry]{}, err
	}
	limit = s.limits.list(limit)
	rows, err := s.follows.ListFollowing(ctx, viewerID, c, limit)
	if err != nil {
		return pagination.Page[FollowEntry]{}, err
	}
	return s.render(ctx, pagination.Paginate(rows, limit), false)
}

// render attaches identities: the viewer side when byViewer, the owner side otherwise.
func (s *FollowService) render(ctx context.Context, page pagination.Page[models.FollowEdge], byViewer bool) (pagination.Page[FollowEntry], error) {
	other := func(e models.FollowEdge) (string, models.Role) {
		if byViewer {
			return e.ViewerID, models.RoleViewer
		}
		return e.OwnerID, models.RoleOwner
	}

	ids := uniqueIDs(len(page.Items), func(i int) string { id, _ := other(page.Items[i]); return id })
	views, err := s.authors.Load(ctx, ids)
	if err != nil {
		return pagination.Page[FollowEntry]{}, err
	}

	return pagination.Map(page, func(e models.FollowEdge) FollowEntry {
		id, role := other(e)
		return FollowEntry{
			OwnerID:   e.OwnerID,
			ViewerID:  e.ViewerID,
			Status:    e.Status,
			Author:    authorOf(views, id, role),
			CreatedAt: e.CreatedAt,
		}
	}), nil
}
