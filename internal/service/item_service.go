package service

import (
	"context"
	"strings"

	"nyx/internal/models"
	"nyx/internal/pagination"
	"nyx/internal/policy"
	"nyx/internal/repository"
)

// CommentEntry is a comment with its author, who may be an owner or a viewer.
type CommentEntry struct {
	Comment models.Comment    `json:"comment"`
	Author  models.AuthorView `json:"author"`
}

// ItemService manages items and their comments under the access policy.
type ItemService struct {
	items    repository.ItemRepository
	comments repository.CommentRepository
	owners   OwnerLookup
	follows  policy.FollowReader
	blocks   policy.BlockReader
	policy   *policy.AccessPolicy
	authors  *AuthorAggregator
	limits   Limits
}

// NewItemService returns a new ItemService.
func NewItemService(items repository.ItemRepository, comments repository.CommentRepository, owners OwnerLookup, follows policy.FollowReader, blocks policy.BlockReader, authors *AuthorAggregator, limits Limits) *ItemService {
	return &ItemService{
		items:    items,
		comments: comments,
		owners:   owners,
		follows:  follows,
		blocks:   blocks,
		policy:   policy.NewAccessPolicy(follows, blocks),
		authors:  authors,
		limits:   limits,
	}
}

// CreateItem stores a new item for ownerID.
func (s *ItemService) CreateItem(ctx context.Context, ownerID, body string, visibility models.Visibility, tags []string) (*models.Item, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("body is required")
	}
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, models.NewValidationError("visibility must be public or private")
	}
	if _, err := s.owners.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	item := &models.Item{OwnerID: ownerID, Body: body, Visibility: visibility}
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			item.Tags = append(item.Tags, models.ItemTag{Tag: tag})
		}
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// visibleItem loads the item and hides it behind not-found when viewer may
// not see it.
func (s *ItemService) visibleItem(ctx context.Context, viewer models.Viewer, itemID string) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if viewer.ID == item.OwnerID {
		return item, nil
	}
	owner, err := s.owners.GetOwner(ctx, item.OwnerID)
	if err != nil {
		return nil, err
	}
	ok, err := s.policy.CanView(ctx, *item, *owner, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Item", itemID)
	}
	return item, nil
}

// GetItem returns the item when viewer may see it, not-found otherwise.
func (s *ItemService) GetItem(ctx context.Context, viewer models.Viewer, itemID string) (*models.Item, error) {
	return s.visibleItem(ctx, viewer, itemID)
}

// DeleteItem removes an item owned by ownerID.
func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID string) (bool, error) {
	return s.items.Delete(ctx, itemID, ownerID)
}

// ReplaceTags swaps the tag list of an item owned by ownerID.
func (s *ItemService) ReplaceTags(ctx context.Context, ownerID, itemID string, tags []string) ([]models.ItemTag, error) {
	return s.items.ReplaceTags(ctx, itemID, ownerID, tags)
}

// ListOwnerItems pages through one owner's items as viewer may see them.
// Owners always see their own items.
func (s *ItemService) ListOwnerItems(ctx context.Context, viewer models.Viewer, ownerID, cursor string, limit int) (pagination.Page[models.Item], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[models.Item]{}, err
	}
	limit = s.limits.list(limit)

	owner, err := s.owners.GetOwner(ctx, ownerID)
	if err != nil {
		return pagination.Page[models.Item]{}, err
	}

	self := viewer.ID == ownerID
	publicOnly := true
	if !self && !viewer.IsAnonymous() {
		blocked, err := s.blocks.BlockedEitherWay(ctx, viewer.ID, ownerID)
		if err != nil {
			return pagination.Page[models.Item]{}, err
		}
		if blocked {
			return pagination.Page[models.Item]{Items: []models.Item{}}, nil
		}
		following, err := s.follows.IsFollowing(ctx, ownerID, viewer.ID)
		if err != nil {
			return pagination.Page[models.Item]{}, err
		}
		publicOnly = !following
	}
	if self {
		publicOnly = false
	} else if publicOnly && !owner.IsPublic() {
		return pagination.Page[models.Item]{Items: []models.Item{}}, nil
	}

	rows, err := s.items.ListByOwner(ctx, ownerID, publicOnly, c, limit)
	if err != nil {
		return pagination.Page[models.Item]{}, err
	}
	page := pagination.Paginate(rows, limit)
	if self {
		return page, nil
	}

	visible, err := s.policy.FilterViewable(ctx, page.Items, map[string]models.OwnerProfile{ownerID: *owner}, viewer)
	if err != nil {
		return pagination.Page[models.Item]{}, err
	}
	page.Items = visible
	return page, nil
}

// AddComment attaches a comment to an item viewer may see.
func (s *ItemService) AddComment(ctx context.Context, viewer models.Viewer, itemID, body string) (*models.Comment, error) {
	if viewer.IsAnonymous() {
		return nil, models.NewUnauthorizedError("sign in to comment")
	}
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("comment body is required")
	}
	if _, err := s.visibleItem(ctx, viewer, itemID); err != nil {
		return nil, err
	}
	comment := &models.Comment{ItemID: itemID, AuthorID: viewer.ID, Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments pages through the comments of an item viewer may see.
func (s *ItemService) ListComments(ctx context.Context, viewer models.Viewer, itemID, cursor string, limit int) (pagination.Page[CommentEntry], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[CommentEntry]{}, err
	}
	if _, err := s.visibleItem(ctx, viewer, itemID); err != nil {
		return pagination.Page[CommentEntry]{}, err
	}
	limit = s.limits.list(limit)

	rows, err := s.comments.ListByItem(ctx, itemID, c, limit)
	if err != nil {
		return pagination.Page[CommentEntry]{}, err
	}
	page := pagination.Paginate(rows, limit)

	views, err := s.authors.Load(ctx, uniqueIDs(len(page.Items), func(i int) string { return page.Items[i].AuthorID }))
	if err != nil {
		return pagination.Page[CommentEntry]{}, err
	}
	return pagination.Map(page, func(cm models.Comment) CommentEntry {
		return CommentEntry{Comment: cm, Author: authorOf(views, cm.AuthorID, "")}
	}), nil
}

// DeleteComment removes a comment written by authorID.
func (s *ItemService) DeleteComment(ctx context.Context, authorID, commentID string) (bool, error) {
	return s.comments.Delete(ctx, commentID, authorID)
}
