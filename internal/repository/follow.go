package repository

import (
	"context"
	"errors"

	"nyx/internal/database"
	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow edge operations
type FollowRepository interface {
	Create(ctx context.Context, ownerID, viewerID string, status models.FollowStatus) (models.FollowOutcome, error)
	Find(ctx context.Context, ownerID, viewerID string) (*models.FollowEdge, error)
	Approve(ctx context.Context, ownerID, viewerID string) (bool, error)
	Delete(ctx context.Context, ownerID, viewerID string, statuses ...models.FollowStatus) (bool, error)
	IsFollowing(ctx context.Context, ownerID, viewerID string) (bool, error)
	StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]models.FollowStatus, error)
	FollowingOwnerIDs(ctx context.Context, viewerID string) ([]string, error)
	ListPending(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error)
	CountPending(ctx context.Context, ownerID string) (int64, error)
	ListFollowers(ctx context.Context, ownerID string, excludedViewerIDs []string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error)
	CountFollowers(ctx context.Context, ownerID string, excludedViewerIDs []string) (int64, error)
	ListFollowing(ctx context.Context, viewerID string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error)
	ApproveAllPending(ctx context.Context, ownerID string) (int64, error)
	WithTx(tx *gorm.DB) FollowRepository
}

// followRepository implements FollowRepository
type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follow_edges")}
}

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository {
	return &followRepository{db: tx, log: r.log}
}

// Create inserts the edge unless the pair already exists, in which case the
// stored status is reported untouched.
func (r *followRepository) Create(ctx context.Context, ownerID, viewerID string, status models.FollowStatus) (models.FollowOutcome, error) {
	if !status.Valid() {
		return models.FollowOutcome{}, models.NewValidationError("follow status must be pending or approved")
	}

	// A concurrent unfollow can remove the conflicting row before we read it.
	for attempt := 0; attempt < 2; attempt++ {
		edge := models.FollowEdge{ID: newID(), OwnerID: ownerID, ViewerID: viewerID, Status: status}
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "owner_id"}, {Name: "viewer_id"}},
				DoNothing: true,
			}).
			Create(&edge)
		if result.Error != nil && !database.IsDuplicateKey(result.Error) {
			r.log.LogError(ctx, result.Error, "create")
			return models.FollowOutcome{}, models.NewInternalError(result.Error)
		}
		if result.Error == nil && result.RowsAffected == 1 {
			r.log.LogCreate(ctx, map[string]interface{}{"owner_id": ownerID, "viewer_id": viewerID, "status": status})
			return models.FollowOutcome{Kind: models.FollowCreated, Status: status}, nil
		}

		existing, err := r.Find(ctx, ownerID, viewerID)
		if err != nil {
			return models.FollowOutcome{}, err
		}
		if existing != nil {
			return models.FollowOutcome{Kind: models.FollowAlreadyExists, Status: existing.Status}, nil
		}
	}
	return models.FollowOutcome{}, models.NewInternalError(errors.New("follow edge changed concurrently"))
}

func (r *followRepository) Find(ctx context.Context, ownerID, viewerID string) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND viewer_id = ?", ownerID, viewerID).
		Take(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

// Approve moves a pending edge to approved. An edge that is already approved
// reports true; a missing edge reports false.
func (r *followRepository) Approve(ctx context.Context, ownerID, viewerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("owner_id = ? AND viewer_id = ? AND status = ?", ownerID, viewerID, models.FollowStatusPending).
		Update("status", models.FollowStatusApproved)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "approve")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogUpdate(ctx, map[string]interface{}{"owner_id": ownerID, "viewer_id": viewerID, "status": models.FollowStatusApproved})
		return true, nil
	}

	edge, err := r.Find(ctx, ownerID, viewerID)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.Status == models.FollowStatusApproved, nil
}

// Delete removes the edge. When statuses are given, only an edge currently in
// one of them is removed.
func (r *followRepository) Delete(ctx context.Context, ownerID, viewerID string, statuses ...models.FollowStatus) (bool, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ? AND viewer_id = ?", ownerID, viewerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	result := q.Delete(&models.FollowEdge{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]interface{}{"owner_id": ownerID, "viewer_id": viewerID})
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, ownerID, viewerID string) (bool, error) {
	if ownerID == "" || viewerID == "" {
		return false, nil
	}
	defer roundTrip("follow_is_following", "follow_edges")()
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("owner_id = ? AND viewer_id = ? AND status = ?", ownerID, viewerID, models.FollowStatusApproved).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// StatusBatch reports the status of every requested owner in one query.
// Owners without an edge map to "none".
func (r *followRepository) StatusBatch(ctx context.Context, ownerIDs []string, viewerID string) (map[string]models.FollowStatus, error) {
	ownerIDs = distinct(ownerIDs)
	statuses := make(map[string]models.FollowStatus, len(ownerIDs))
	for _, id := range ownerIDs {
		statuses[id] = models.FollowStatusNone
	}
	if len(ownerIDs) == 0 || viewerID == "" {
		return statuses, nil
	}

	defer roundTrip("follow_status_batch", "follow_edges")()
	var edges []models.FollowEdge
	if err := r.db.WithContext(ctx).
		Select("owner_id", "status").
		Where("viewer_id = ? AND owner_id IN ?", viewerID, ownerIDs).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, e := range edges {
		statuses[e.OwnerID] = e.Status
	}
	return statuses, nil
}

func (r *followRepository) FollowingOwnerIDs(ctx context.Context, viewerID string) ([]string, error) {
	ids := []string{}
	if viewerID == "" {
		return ids, nil
	}
	defer roundTrip("follow_following_ids", "follow_edges")()
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("viewer_id = ? AND status = ?", viewerID, models.FollowStatusApproved).
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) ListPending(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error) {
	var edges []models.FollowEdge
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, models.FollowStatusPending).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *followRepository) CountPending(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("owner_id = ? AND status = ?", ownerID, models.FollowStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) followers(ctx context.Context, ownerID string, excluded []string) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("owner_id = ? AND status = ?", ownerID, models.FollowStatusApproved)
	if excluded = distinct(excluded); len(excluded) > 0 {
		q = q.Where("viewer_id NOT IN ?", excluded)
	}
	return q
}

// ListFollowers returns approved followers of ownerID. Excluded viewers are
// removed before the page window is taken.
func (r *followRepository) ListFollowers(ctx context.Context, ownerID string, excludedViewerIDs []string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error) {
	var edges []models.FollowEdge
	if err := r.followers(ctx, ownerID, excludedViewerIDs).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, ownerID string, excludedViewerIDs []string) (int64, error) {
	var count int64
	if err := r.followers(ctx, ownerID, excludedViewerIDs).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, viewerID string, cursor *pagination.Cursor, limit int) ([]models.FollowEdge, error) {
	var edges []models.FollowEdge
	if err := r.db.WithContext(ctx).
		Where("viewer_id = ? AND status = ?", viewerID, models.FollowStatusApproved).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// ApproveAllPending approves every pending request of ownerID in one
// transaction and returns how many moved.
func (r *followRepository) ApproveAllPending(ctx context.Context, ownerID string) (int64, error) {
	var approved int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.FollowEdge{}).
			Clauses(lockingClause(tx)...).
			Where("owner_id = ? AND status = ?", ownerID, models.FollowStatusPending).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		result := tx.Model(&models.FollowEdge{}).
			Where("id IN ? AND status = ?", ids, models.FollowStatusPending).
			Update("status", models.FollowStatusApproved)
		if result.Error != nil {
			return result.Error
		}
		approved = result.RowsAffected
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "approve_all_pending")
		return 0, models.NewInternalError(err)
	}
	if approved > 0 {
		r.log.LogUpdate(ctx, map[string]interface{}{"owner_id": ownerID, "approved": approved})
	}
	return approved, nil
}

// lockingClause adds FOR UPDATE where the dialect supports row locks.
func lockingClause(db *gorm.DB) []clause.Expression {
	if db.Dialector.Name() == "postgres" {
		return []clause.Expression{clause.Locking{Strength: clause.LockingStrengthUpdate}}
	}
	return nil
}
