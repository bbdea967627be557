// Package policy decides who may see an owner's items and profile.
//
// Every decision combines four signals: the owner's account-level
// visibility, the item's own visibility, the viewer's follow status and any
// block between the two parties. A block in either direction denies
// everything. Public items of public owners are visible to anyone, including
// anonymous viewers. Everything else requires an approved follow, which
// grants access to all of the owner's items.
package policy

import (
	"context"
	"fmt"

	"nyx/internal/models"
	"nyx/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// FollowReader is the read side of the follow graph.
type FollowReader interface {
	IsFollowing(ctx context.Context, ownerID, viewerID string) (bool, error)
	StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]models.FollowStatus, error)
}

// BlockReader is the read side of the block graph.
type BlockReader interface {
	BlockedEitherWay(ctx context.Context, a, b string) (bool, error)
	BlockedOwnerIDs(ctx context.Context, viewerID string) ([]string, error)
}

// AccessPolicy evaluates visibility against injected graph readers.
type AccessPolicy struct {
	follows FollowReader
	blocks  BlockReader
}

// NewAccessPolicy creates an AccessPolicy.
func NewAccessPolicy(follows FollowReader, blocks BlockReader) *AccessPolicy {
	return &AccessPolicy{follows: follows, blocks: blocks}
}

func openToAll(item models.Item, owner models.OwnerProfile) bool {
	return owner.IsPublic() && item.IsPublic()
}

// CanView reports whether viewer may see item. owner must be the item's owner.
func (p *AccessPolicy) CanView(ctx context.Context, item models.Item, owner models.OwnerProfile, viewer models.Viewer) (bool, error) {
	if owner.ID == "" || owner.ID != item.OwnerID {
		return false, models.NewPreconditionError(fmt.Sprintf("owner record for item %s is missing", item.ID))
	}

	if !viewer.IsAnonymous() {
		blocked, err := p.blocks.BlockedEitherWay(ctx, viewer.ID, owner.ID)
		if err != nil {
			return false, err
		}
		if blocked {
			observability.RecordDecision("single", observability.DecisionDeniedBlocked)
			return false, nil
		}
	}

	if openToAll(item, owner) {
		observability.RecordDecision("single", observability.DecisionAllowed)
		return true, nil
	}
	if viewer.IsAnonymous() {
		observability.RecordDecision("single", observability.DecisionDeniedNoFollow)
		return false, nil
	}

	following, err := p.follows.IsFollowing(ctx, owner.ID, viewer.ID)
	if err != nil {
		return false, err
	}
	if following {
		observability.RecordDecision("single", observability.DecisionAllowed)
	} else {
		observability.RecordDecision("single", observability.DecisionDeniedNoFollow)
	}
	return following, nil
}

// FilterViewable keeps the items viewer may see, in input order. It issues at
// most one block read and one follow read regardless of how many items are
// given; anonymous viewers cost no reads at all.
func (p *AccessPolicy) FilterViewable(ctx context.Context, items []models.Item, owners map[string]models.OwnerProfile, viewer models.Viewer) ([]models.Item, error) {
	for _, item := range items {
		if o, ok := owners[item.OwnerID]; !ok || o.ID != item.OwnerID {
			return nil, models.NewPreconditionError(fmt.Sprintf("owner record for item %s is missing", item.ID))
		}
	}

	kept := make([]models.Item, 0, len(items))
	if len(items) == 0 {
		return kept, nil
	}

	ctx, span := observability.StartSpan(ctx, "policy", "filter_viewable",
		attribute.Int("items", len(items)),
		attribute.Bool("anonymous", viewer.IsAnonymous()),
	)
	defer span.End()

	if viewer.IsAnonymous() {
		for _, item := range items {
			if openToAll(item, owners[item.OwnerID]) {
				kept = append(kept, item)
			}
		}
		observability.VisibilityDecisions.WithLabelValues("batch", observability.DecisionAllowed).Add(float64(len(kept)))
		observability.VisibilityDecisions.WithLabelValues("batch", observability.DecisionDeniedNoFollow).Add(float64(len(items) - len(kept)))
		return kept, nil
	}

	blockedIDs, err := p.blocks.BlockedOwnerIDs(ctx, viewer.ID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	blocked := make(map[string]struct{}, len(blockedIDs))
	for _, id := range blockedIDs {
		blocked[id] = struct{}{}
	}

	// Follow status only matters for unblocked owners with gated items.
	var gated []string
	seen := make(map[string]struct{})
	for _, item := range items {
		if _, ok := blocked[item.OwnerID]; ok {
			continue
		}
		if openToAll(item, owners[item.OwnerID]) {
			continue
		}
		if _, ok := seen[item.OwnerID]; ok {
			continue
		}
		seen[item.OwnerID] = struct{}{}
		gated = append(gated, item.OwnerID)
	}

	statuses := map[string]models.FollowStatus{}
	if len(gated) > 0 {
		statuses, err = p.follows.StatusBatch(ctx, gated, viewer.ID)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	var deniedBlocked, deniedFollow int
	for _, item := range items {
		switch {
		case isBlocked(blocked, item.OwnerID):
			deniedBlocked++
		case openToAll(item, owners[item.OwnerID]):
			kept = append(kept, item)
		case statuses[item.OwnerID] == models.FollowStatusApproved:
			kept = append(kept, item)
		default:
			deniedFollow++
		}
	}

	observability.VisibilityDecisions.WithLabelValues("batch", observability.DecisionAllowed).Add(float64(len(kept)))
	observability.VisibilityDecisions.WithLabelValues("batch", observability.DecisionDeniedBlocked).Add(float64(deniedBlocked))
	observability.VisibilityDecisions.WithLabelValues("batch", observability.DecisionDeniedNoFollow).Add(float64(deniedFollow))
	span.AddAttributes(attribute.Int("kept", len(kept)))
	return kept, nil
}

func isBlocked(blocked map[string]struct{}, id string) bool {
	_, ok := blocked[id]
	return ok
}

// CanViewProfile reports whether viewer may see that owner exists at all.
// Only a block hides a profile.
func (p *AccessPolicy) CanViewProfile(ctx context.Context, owner models.OwnerProfile, viewer models.Viewer) (bool, error) {
	if viewer.IsAnonymous() {
		return true, nil
	}
	blocked, err := p.blocks.BlockedEitherWay(ctx, viewer.ID, owner.ID)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

// CanViewProfileDetails reports whether viewer may see the owner's full
// profile: public owners show it to everyone not blocked, private owners only
// to approved followers.
func (p *AccessPolicy) CanViewProfileDetails(ctx context.Context, owner models.OwnerProfile, viewer models.Viewer) (bool, error) {
	visible, err := p.CanViewProfile(ctx, owner, viewer)
	if err != nil || !visible {
		return false, err
	}
	if owner.IsPublic() {
		return true, nil
	}
	if viewer.IsAnonymous() {
		return false, nil
	}
	return p.follows.IsFollowing(ctx, owner.ID, viewer.ID)
}
