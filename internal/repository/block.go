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

// BlockRepository defines the interface for block edge operations
type BlockRepository interface {
	Create(ctx context.Context, blocker, blocked models.Actor) (bool, error)
	Delete(ctx context.Context, blockerID, blockedID string) (bool, error)
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)
	BlockedEitherWay(ctx context.Context, a, b string) (bool, error)
	BlockedOwnerIDs(ctx context.Context, viewerID string) ([]string, error)
	BlockedIDs(ctx context.Context, blockerID string, blockedType models.Role) ([]string, error)
	StatusBatch(ctx context.Context, ids []string, blockerID string) (map[string]bool, error)
	List(ctx context.Context, blockerID string, cursor *pagination.Cursor, limit int) ([]models.BlockEdge, error)
}

// blockRepository implements BlockRepository
type blockRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db, log: observability.NewRepoLogger("block_edges")}
}

// Create reports false when the ordered pair is already blocked.
func (r *blockRepository) Create(ctx context.Context, blocker, blocked models.Actor) (bool, error) {
	edge := models.BlockEdge{
		ID:          newID(),
		BlockerID:   blocker.ID,
		BlockerType: blocker.Role,
		BlockedID:   blocked.ID,
		BlockedType: blocked.Role,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
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
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.log.LogCreate(ctx, map[string]interface{}{"blocker_id": blocker.ID, "blocked_id": blocked.ID})
	return true, nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockEdge{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]interface{}{"blocker_id": blockerID, "blocked_id": blockedID})
	}
	return result.RowsAffected > 0, nil
}

func (r *blockRepository) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BlockEdge{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// BlockedEitherWay reports whether a blocked b or b blocked a.
func (r *blockRepository) BlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" {
		return false, nil
	}
	defer roundTrip("block_either_way", "block_edges")()
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BlockEdge{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// BlockedOwnerIDs returns, in one query, every party viewerID blocked and
// every party that blocked viewerID. Stored actor types are not consulted,
// the same as BlockedEitherWay, so callers match the result against owner ids.
func (r *blockRepository) BlockedOwnerIDs(ctx context.Context, viewerID string) ([]string, error) {
	ids := []string{}
	if viewerID == "" {
		return ids, nil
	}
	defer roundTrip("block_owner_ids", "block_edges")()
	var edges []models.BlockEdge
	if err := r.db.WithContext(ctx).
		Select("blocker_id", "blocked_id").
		Where("blocker_id = ? OR blocked_id = ?", viewerID, viewerID).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, e := range edges {
		if e.BlockerID == viewerID {
			ids = append(ids, e.BlockedID)
		} else {
			ids = append(ids, e.BlockerID)
		}
	}
	return distinct(ids), nil
}

// BlockedIDs lists the ids blockerID blocked, restricted to one actor type.
func (r *blockRepository) BlockedIDs(ctx context.Context, blockerID string, blockedType models.Role) ([]string, error) {
	ids := []string{}
	if err := r.db.WithContext(ctx).
		Model(&models.BlockEdge{}).
		Where("blocker_id = ? AND blocked_type = ?", blockerID, blockedType).
		Pluck("blocked_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *blockRepository) StatusBatch(ctx context.Context, ids []string, blockerID string) (map[string]bool, error) {
	ids = distinct(ids)
	statuses := make(map[string]bool, len(ids))
	for _, id := range ids {
		statuses[id] = false
	}
	if len(ids) == 0 || blockerID == "" {
		return statuses, nil
	}

	defer roundTrip("block_status_batch", "block_edges")()
	var blocked []string
	if err := r.db.WithContext(ctx).
		Model(&models.BlockEdge{}).
		Where("blocker_id = ? AND blocked_id IN ?", blockerID, ids).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range blocked {
		statuses[id] = true
	}
	return statuses, nil
}

func (r *blockRepository) List(ctx context.Context, blockerID string, cursor *pagination.Cursor, limit int) ([]models.BlockEdge, error) {
	var edges []models.BlockEdge
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}
