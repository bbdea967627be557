package service

import (
	"context"
	"strings"

	"nyx/internal/cache"
	"nyx/internal/database"
	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/policy"
	"nyx/internal/repository"

	"gorm.io/gorm"
)

// ProfileView is what a viewer may see of an owner. Details is false when
// the owner is private and the viewer is not an approved follower.
type ProfileView struct {
	Author     models.AuthorView `json:"author"`
	Visibility models.Visibility `json:"visibility"`
	Details    bool              `json:"details"`
}

// ProfileService registers accounts and manages owner visibility.
type ProfileService struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	follows  repository.FollowRepository
	policy   *policy.AccessPolicy
	store    *cache.Store
	logger   *observability.StructuredLogger
}

// NewProfileService returns a new ProfileService.
func NewProfileService(db *gorm.DB, accounts repository.AccountRepository, profiles repository.ProfileRepository, follows repository.FollowRepository, p *policy.AccessPolicy, store *cache.Store) *ProfileService {
	return &ProfileService{
		db:       db,
		accounts: accounts,
		profiles: profiles,
		follows:  follows,
		policy:   p,
		store:    store,
		logger:   observability.NewStructuredLogger(),
	}
}

// RegisterOwner creates an owner account and its profile.
func (s *ProfileService) RegisterOwner(ctx context.Context, name string, avatarURL *string, visibility models.Visibility) (*models.OwnerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, models.NewValidationError("visibility must be public or private")
	}
	profile := &models.OwnerProfile{Name: name, AvatarURL: avatarURL, Visibility: visibility}
	if err := s.accounts.RegisterOwner(ctx, profile); err != nil {
		return nil, err
	}
	if profile.IsPublic() {
		s.store.InvalidatePublicOwners(ctx)
	}
	return profile, nil
}

// RegisterViewer creates a viewer account and its profile.
func (s *ProfileService) RegisterViewer(ctx context.Context, name string, avatarURL *string) (*models.ViewerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	profile := &models.ViewerProfile{Name: name, AvatarURL: avatarURL}
	if err := s.accounts.RegisterViewer(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetOwnerProfile returns the owner as viewer may see it. Blocked viewers get
// not-found.
func (s *ProfileService) GetOwnerProfile(ctx context.Context, ownerID string, viewer models.Viewer) (*ProfileView, error) {
	owner, err := s.profiles.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	visible, err := s.policy.CanViewProfile(ctx, *owner, viewer)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, models.NewNotFoundError("Owner", ownerID)
	}
	details, err := s.policy.CanViewProfileDetails(ctx, *owner, viewer)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		Author:     models.AuthorView{ID: owner.ID, Name: owner.Name, AvatarURL: owner.AvatarURL, Role: models.RoleOwner},
		Visibility: owner.Visibility,
		Details:    details,
	}, nil
}

// SetVisibility switches an owner's account-level visibility. Going from
// private to public approves every pending request in the same transaction.
// It returns how many requests were approved.
func (s *ProfileService) SetVisibility(ctx context.Context, ownerID string, visibility models.Visibility) (int64, error) {
	if !visibility.Valid() {
		return 0, models.NewValidationError("visibility must be public or private")
	}
	ctx = observability.EnsureCorrelationID(ctx)

	var approved int64
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		profiles := s.profiles.WithTx(tx)
		owner, err := profiles.GetOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := profiles.SetOwnerVisibility(ctx, ownerID, visibility); err != nil {
			return err
		}
		if owner.Visibility == models.VisibilityPrivate && visibility == models.VisibilityPublic {
			approved, err = s.follows.WithTx(tx).ApproveAllPending(ctx, ownerID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.LogServiceError(ctx, "ProfileService", "SetVisibility", err)
		return 0, err
	}

	s.store.InvalidatePublicOwners(ctx)
	s.logger.LogServiceCall(ctx, "ProfileService", "SetVisibility", map[string]interface{}{
		"owner_id":   ownerID,
		"visibility": visibility,
		"approved":   approved,
	})
	return approved, nil
}
