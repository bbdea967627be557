package service

import (
	"context"
	"time"

	"nyx/internal/models"
	"nyx/internal/pagination"
	"nyx/internal/repository"
)

// FavoriteEntry is one saved owner.
type FavoriteEntry struct {
	OwnerID   string            `json:"owner_id"`
	Author    models.AuthorView `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
}

// FavoriteService manages the owners a viewer has saved.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	authors   *AuthorAggregator
	limits    Limits
}

// NewFavoriteService returns a new FavoriteService.
func NewFavoriteService(favorites repository.FavoriteRepository, authors *AuthorAggregator, limits Limits) *FavoriteService {
	return &FavoriteService{favorites: favorites, authors: authors, limits: limits}
}

// Favorite is false when the owner was already saved.
func (s *FavoriteService) Favorite(ctx context.Context, ownerID, viewerID string) (bool, error) {
	if ownerID == "" || viewerID == "" {
		return false, models.NewValidationError("owner and viewer are required")
	}
	return s.favorites.Create(ctx, ownerID, viewerID)
}

// Unfavorite is false when nothing was saved.
func (s *FavoriteService) Unfavorite(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.favorites.Delete(ctx, ownerID, viewerID)
}

func (s *FavoriteService) IsFavorite(ctx context.Context, ownerID, viewerID string) (bool, error) {
	return s.favorites.Exists(ctx, ownerID, viewerID)
}

func (s *FavoriteService) OwnerIDs(ctx context.Context, viewerID string) ([]string, error) {
	return s.favorites.OwnerIDs(ctx, viewerID)
}

func (s *FavoriteService) StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]bool, error) {
	return s.favorites.StatusBatch(ctx, ownerIDs, viewerID)
}

// ListFavorites pages through the owners viewerID saved.
func (s *FavoriteService) ListFavorites(ctx context.Context, viewerID, cursor string, limit int) (pagination.Page[FavoriteEntry], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[FavoriteEntry]{}, err
	}
	limit = s.limits.list(limit)
	rows, err := s.favorites.List(ctx, viewerID, c, limit)
	if err != nil {
		return pagination.Page[FavoriteEntry]{}, err
	}
	page := pagination.Paginate(rows, limit)

	views, err := s.authors.Load(ctx, uniqueIDs(len(page.Items), func(i int) string { return page.Items[i].OwnerID }))
	if err != nil {
		return pagination.Page[FavoriteEntry]{}, err
	}
	return pagination.Map(page, func(e models.FavoriteEdge) FavoriteEntry {
		return FavoriteEntry{OwnerID: e.OwnerID, Author: authorOf(views, e.OwnerID, models.RoleOwner), CreatedAt: e.CreatedAt}
	}), nil
}
