package repository

import (
	"context"
	"errors"
	"strings"

	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"

	"gorm.io/gorm"
)

// FeedQuery selects feed candidates. An item qualifies when its owner is in
// FollowedOwnerIDs, or when its owner is in PublicOwnerIDs and the item itself
// is public. Owners in ExcludedOwnerIDs never qualify.
type FeedQuery struct {
	PublicOwnerIDs   []string
	FollowedOwnerIDs []string
	ExcludedOwnerIDs []string
	Cursor           *pagination.Cursor
	Limit            int
}

// ItemRepository defines the interface for item operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	ListFeed(ctx context.Context, q FeedQuery) ([]models.Item, error)
	ListByOwner(ctx context.Context, ownerID string, publicOnly bool, cursor *pagination.Cursor, limit int) ([]models.Item, error)
	ReplaceTags(ctx context.Context, itemID, ownerID string, tags []string) ([]models.ItemTag, error)
}

type itemRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db, log: observability.NewRepoLogger("items")}
}

func orderedTags(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func buildTags(itemID string, tags []string) []models.ItemTag {
	out := make([]models.ItemTag, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, models.ItemTag{ItemID: itemID, Tag: tag, Position: len(out)})
	}
	return out
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = newID()
	}
	if item.Visibility == "" {
		item.Visibility = models.VisibilityPublic
	}
	for i := range item.Tags {
		item.Tags[i].ItemID = item.ID
		item.Tags[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": item.ID, "owner_id": item.OwnerID})
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Preload("Tags", orderedTags).
		Where("id = ?", id).
		Take(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Item", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

// Delete removes the item and its tags when ownerID owns it.
func (r *itemRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Item{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("item_id = ?", id).Delete(&models.ItemTag{}).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return false, models.NewInternalError(err)
	}
	if deleted {
		r.log.LogDelete(ctx, map[string]interface{}{"id": id, "owner_id": ownerID})
	}
	return deleted, nil
}

// ListFeed fetches limit+1 candidate items in keyset order.
func (r *itemRepository) ListFeed(ctx context.Context, q FeedQuery) ([]models.Item, error) {
	public := distinct(q.PublicOwnerIDs)
	followed := distinct(q.FollowedOwnerIDs)
	if len(public) == 0 && len(followed) == 0 {
		return []models.Item{}, nil
	}

	query := r.db.WithContext(ctx)
	switch {
	case len(public) > 0 && len(followed) > 0:
		query = query.Where(
			"((owner_id IN ? AND visibility = ?) OR owner_id IN ?)",
			public, models.VisibilityPublic, followed,
		)
	case len(public) > 0:
		query = query.Where("owner_id IN ? AND visibility = ?", public, models.VisibilityPublic)
	default:
		query = query.Where("owner_id IN ?", followed)
	}
	if excluded := distinct(q.ExcludedOwnerIDs); len(excluded) > 0 {
		query = query.Where("owner_id NOT IN ?", excluded)
	}

	defer roundTrip("item_feed", "items")()
	var items []models.Item
	if err := query.
		Preload("Tags", orderedTags).
		Scopes(pagination.Scope("", q.Cursor, q.Limit)).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string, publicOnly bool, cursor *pagination.Cursor, limit int) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if publicOnly {
		query = query.Where("visibility = ?", models.VisibilityPublic)
	}
	var items []models.Item
	if err := query.
		Preload("Tags", orderedTags).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// ReplaceTags swaps the full tag list of an item owned by ownerID. Blank tags
// are skipped and the remaining order is kept.
func (r *itemRepository) ReplaceTags(ctx context.Context, itemID, ownerID string, tags []string) ([]models.ItemTag, error) {
	rows := buildTags(itemID, tags)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Item{}).Where("id = ? AND owner_id = ?", itemID, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotFoundError("Item", itemID)
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&models.ItemTag{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		r.log.LogError(ctx, err, "replace_tags")
		return nil, models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"item_id": itemID, "tags": len(rows)})
	return rows, nil
}
