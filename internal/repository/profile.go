package repository

import (
	"context"
	"errors"

	"nyx/internal/models"
	"nyx/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository reads owner and viewer display records in batch.
type ProfileRepository interface {
	GetOwner(ctx context.Context, id string) (*models.OwnerProfile, error)
	OwnersByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error)
	ViewersByIDs(ctx context.Context, ids []string) (map[string]models.ViewerProfile, error)
	PublicOwnerIDs(ctx context.Context) ([]string, error)
	SetOwnerVisibility(ctx context.Context, ownerID string, visibility models.Visibility) error
	WithTx(tx *gorm.DB) ProfileRepository
}

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, log: observability.NewRepoLogger("owner_profiles")}
}

func (r *profileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	return &profileRepository{db: tx, log: r.log}
}

func (r *profileRepository) GetOwner(ctx context.Context, id string) (*models.OwnerProfile, error) {
	var profile models.OwnerProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Owner", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) OwnersByIDs(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error) {
	ids = distinct(ids)
	out := make(map[string]models.OwnerProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	defer roundTrip("owner_profiles_batch", "owner_profiles")()
	var profiles []models.OwnerProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (r *profileRepository) ViewersByIDs(ctx context.Context, ids []string) (map[string]models.ViewerProfile, error) {
	ids = distinct(ids)
	out := make(map[string]models.ViewerProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	defer roundTrip("viewer_profiles_batch", "viewer_profiles")()
	var profiles []models.ViewerProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (r *profileRepository) PublicOwnerIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.WithContext(ctx).
		Model(&models.OwnerProfile{}).
		Where("visibility = ?", models.VisibilityPublic).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *profileRepository) SetOwnerVisibility(ctx context.Context, ownerID string, visibility models.Visibility) error {
	if !visibility.Valid() {
		return models.NewValidationError("visibility must be public or private")
	}
	result := r.db.WithContext(ctx).
		Model(&models.OwnerProfile{}).
		Where("id = ?", ownerID).
		Update("visibility", visibility)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "set_visibility")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Owner", ownerID)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": ownerID, "visibility": visibility})
	return nil
}
