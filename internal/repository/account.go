package repository

import (
	"context"
	"errors"

	"nyx/internal/models"
	"nyx/internal/observability"

	"gorm.io/gorm"
)

// AccountRepository resolves account roles and registers new accounts.
type AccountRepository interface {
	Role(ctx context.Context, id string) (models.Role, error)
	RolesBatch(ctx context.Context, ids []string) (map[string]models.Role, error)
	RegisterOwner(ctx context.Context, profile *models.OwnerProfile) error
	RegisterViewer(ctx context.Context, profile *models.ViewerProfile) error
}

type accountRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db, log: observability.NewRepoLogger("accounts")}
}

func (r *accountRepository) Role(ctx context.Context, id string) (models.Role, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("id", "role").Where("id = ?", id).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("Account", id)
		}
		return "", models.NewInternalError(err)
	}
	return account.Role, nil
}

// RolesBatch resolves every known id in one query. Unknown ids are absent
// from the result.
func (r *accountRepository) RolesBatch(ctx context.Context, ids []string) (map[string]models.Role, error) {
	ids = distinct(ids)
	roles := make(map[string]models.Role, len(ids))
	if len(ids) == 0 {
		return roles, nil
	}

	defer roundTrip("account_roles_batch", "accounts")()
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Select("id", "role").
		Where("id IN ?", ids).
		Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, a := range accounts {
		roles[a.ID] = a.Role
	}
	return roles, nil
}

func (r *accountRepository) register(ctx context.Context, id string, role models.Role, profile interface{}) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Account{ID: id, Role: role}).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "register")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": id, "role": role})
	return nil
}

// RegisterOwner writes the account row and owner profile together.
func (r *accountRepository) RegisterOwner(ctx context.Context, profile *models.OwnerProfile) error {
	if profile.ID == "" {
		profile.ID = newID()
	}
	if profile.Visibility == "" {
		profile.Visibility = models.VisibilityPublic
	}
	return r.register(ctx, profile.ID, models.RoleOwner, profile)
}

// RegisterViewer writes the account row and viewer profile together.
func (r *accountRepository) RegisterViewer(ctx context.Context, profile *models.ViewerProfile) error {
	if profile.ID == "" {
		profile.ID = newID()
	}
	return r.register(ctx, profile.ID, models.RoleViewer, profile)
}
