package repository

import (
	"context"

	"nyx/internal/database"
	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository defines the interface for favorite edge operations
type FavoriteRepository interface {
	Create(ctx context.Context, ownerID, viewerID string) (bool, error)
	Delete(ctx context.Context, ownerID, viewerID string) (bool, error)
	Exists(ctx context.Context, ownerID, viewerID string) (bool, error)
	OwnerIDs(ctx context.Context, viewerID string) ([]string, error)
	StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]bool, error)
	List(ctx context.Context, viewerID string, cursor *pagination.Cursor, limit int) ([]models.FavoriteEdge, error)
}

type favoriteRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db, log: observability.NewRepoLogger("favorite_edges")}
}

func (r *favoriteRepository) Create(ctx context.Context, ownerID, viewerID string) (bool, error) {
	edge := models.FavoriteEdge{ID: newID(), OwnerID: ownerID, ViewerID: viewerID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "viewer_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if result.Error != nil {
		if database.IsDuplicateKey(result.Error) {
			return false, nil
		}
		r.log.LogError(ctx, result.Error, "create")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]interface{}{"owner_id": ownerID, "viewer_id": viewerID})
	}
	return result.RowsAffected > 0, nil
}

func (r *favoriteRepository) Delete(ctx context.Context, ownerID, viewerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND viewer_id = ?", ownerID, viewerID).
		Delete(&models.FavoriteEdge{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *favoriteRepository) Exists(ctx context.Context, ownerID, viewerID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FavoriteEdge{}).
		Where("owner_id = ? AND viewer_id = ?", ownerID, viewerID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *favoriteRepository) OwnerIDs(ctx context.Context, viewerID string) ([]string, error) {
	ids := []string{}
	if viewerID == "" {
		return ids, nil
	}
	defer roundTrip("favorite_owner_ids", "favorite_edges")()
	if err := r.db.WithContext(ctx).
		Model(&models.FavoriteEdge{}).
		Where("viewer_id = ?", viewerID).
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *favoriteRepository) StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]bool, error) {
	ownerIDs = distinct(ownerIDs)
	statuses := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		statuses[id] = false
	}
	if len(ownerIDs) == 0 || viewerID == "" {
		return statuses, nil
	}

	defer roundTrip("favorite_status_batch", "favorite_edges")()
	var saved []string
	if err := r.db.WithContext(ctx).
		Model(&models.FavoriteEdge{}).
		Where("viewer_id = ? AND owner_id IN ?", viewerID, ownerIDs).
		Pluck("owner_id", &saved).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range saved {
		statuses[id] = true
	}
	return statuses, nil
}

func (r *favoriteRepository) List(ctx context.Context, viewerID string, cursor *pagination.Cursor, limit int) ([]models.FavoriteEdge, error) {
	var edges []models.FavoriteEdge
	if err := r.db.WithContext(ctx).
		Where("viewer_id = ?", viewerID).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}
