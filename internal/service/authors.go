package service

import (
	"context"

	"nyx/internal/models"
	"nyx/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// RoleReader resolves account roles in batch.
type RoleReader interface {
	RolesBatch(ctx context.Context, ids []string) (map[string]models.Role, error)
}

// OwnerProfileReader fetches owner profiles in batch.
type OwnerProfileReader interface {
	OwnersByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
}

// ViewerProfileReader fetches viewer profiles in batch.
type ViewerProfileReader interface {
	ViewersByIDs(ctx context.Context, ids []string) (map[string]models.ViewerProfile, error)
}

// AuthorAggregator turns account ids into display identities.
type AuthorAggregator struct {
	roles   RoleReader
	owners  OwnerProfileReader
	viewers ViewerProfileReader
}

// NewAuthorAggregator creates an AuthorAggregator.
func NewAuthorAggregator(roles RoleReader, owners OwnerProfileReader, viewers ViewerProfileReader) *AuthorAggregator {
	return &AuthorAggregator{roles: roles, owners: owners, viewers: viewers}
}

// Load resolves every id with exactly three batch reads (roles, owner
// profiles, viewer profiles), or none for empty input. Ids without a role or
// profile get a placeholder instead of failing the whole load.
func (a *AuthorAggregator) Load(ctx context.Context, accountIDs []string) (map[string]models.AuthorView, error) {
	ids := uniqueIDs(len(accountIDs), func(i int) string { return accountIDs[i] })
	views := make(map[string]models.AuthorView, len(ids))
	if len(ids) == 0 {
		return views, nil
	}

	ctx, span := observability.StartSpan(ctx, "authors", "load", attribute.Int("ids", len(ids)))
	defer span.End()

	roles, err := a.roles.RolesBatch(ctx, ids)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var ownerIDs, viewerIDs []string
	for _, id := range ids {
		switch roles[id] {
		case models.RoleOwner:
			ownerIDs = append(ownerIDs, id)
		case models.RoleViewer:
			viewerIDs = append(viewerIDs, id)
		}
	}

	owners, err := a.owners.OwnersByIDs(ctx, ownerIDs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	viewers, err := a.viewers.ViewersByIDs(ctx, viewerIDs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	for _, id := range ids {
		role := roles[id]
		view := models.PlaceholderAuthor(id, role)
		switch role {
		case models.RoleOwner:
			if p, ok := owners[id]; ok {
				view = models.AuthorView{ID: id, Name: p.Name, AvatarURL: p.AvatarURL, Role: role}
			}
		case models.RoleViewer:
			if p, ok := viewers[id]; ok {
				view = models.AuthorView{ID: id, Name: p.Name, AvatarURL: p.AvatarURL, Role: role}
			}
		}
		views[id] = view
	}
	return views, nil
}

// authorOf returns the view for id, or a placeholder when it is absent.
func authorOf(views map[string]models.AuthorView, id string, role models.Role) models.AuthorView {
	if v, ok := views[id]; ok {
		return v
	}
	return models.PlaceholderAuthor(id, role)
}
