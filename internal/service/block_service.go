package service

import (
	"context"
	"time"

	"nyx/internal/models"
	"nyx/internal/pagination"
	"nyx/internal/repository"
)

// BlockEntry is one block edge rendered with the blocked party's identity.
type BlockEntry struct {
	BlockedID   string            `json:"blocked_id"`
	BlockedType models.Role       `json:"blocked_type"`
	Author      models.AuthorView `json:"author"`
	CreatedAt   time.Time         `json:"created_at"`
}

// BlockService manages blocks between any two actors.
type BlockService struct {
	blocks  repository.BlockRepository
	roles   RoleReader
	authors *AuthorAggregator
	limits  Limits
}

// NewBlockService returns a new BlockService.
func NewBlockService(blocks repository.BlockRepository, roles RoleReader, authors *AuthorAggregator, limits Limits) *BlockService {
	return &BlockService{blocks: blocks, roles: roles, authors: authors, limits: limits}
}

// Block is false when the block was already in place. Both parties must be
// registered accounts and the roles on the edge are the ones stored for
// them; a caller-supplied role that disagrees is rejected.
func (s *BlockService) Block(ctx context.Context, blocker, blocked models.Actor) (bool, error) {
	if blocker.ID == "" || blocked.ID == "" {
		return false, models.NewValidationError("blocker and blocked are required")
	}
	if blocker.ID == blocked.ID {
		return false, models.NewValidationError("Cannot block yourself")
	}
	if !blocker.Role.Valid() || !blocked.Role.Valid() {
		return false, models.NewValidationError("unknown actor type")
	}

	roles, err := s.roles.RolesBatch(ctx, []string{blocker.ID, blocked.ID})
	if err != nil {
		return false, err
	}
	for _, a := range []models.Actor{blocker, blocked} {
		role, ok := roles[a.ID]
		if !ok {
			return false, models.NewNotFoundError("Account", a.ID)
		}
		if role != a.Role {
			return false, models.NewValidationError("actor type does not match account " + a.ID)
		}
	}
	return s.blocks.Create(ctx, blocker, blocked)
}

// Unblock is false when there was nothing to remove.
func (s *BlockService) Unblock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return s.blocks.Delete(ctx, blockerID, blockedID)
}

// IsBlocked reports whether blockerID blocked blockedID.
func (s *BlockService) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	return s.blocks.Exists(ctx, blockerID, blockedID)
}

// BlockedOwnerIDs lists owners blockerID has blocked.
func (s *BlockService) BlockedOwnerIDs(ctx context.Context, blockerID string) ([]string, error) {
	return s.blocks.BlockedIDs(ctx, blockerID, models.RoleOwner)
}

// BlockedViewerIDs lists viewers blockerID has blocked.
func (s *BlockService) BlockedViewerIDs(ctx context.Context, blockerID string) ([]string, error) {
	return s.blocks.BlockedIDs(ctx, blockerID, models.RoleViewer)
}

// StatusBatch reports, per id, whether blockerID blocked it.
func (s *BlockService) StatusBatch(ctx context.Context, ids []string, blockerID string) (map[string]bool, error) {
	return s.blocks.StatusBatch(ctx, ids, blockerID)
}

// ListBlocked pages through blockerID's blocks.
func (s *BlockService) ListBlocked(ctx context.Context, blockerID, cursor string, limit int) (pagination.Page[BlockEntry], error) {
	c, err := decodeCursor(cursor)
	if err != nil {
		return pagination.Page[BlockEntry]{}, err
	}
	limit = s.limits.list(limit)
	rows, err := s.blocks.List(ctx, blockerID, c, limit)
	if err != nil {
		return pagination.Page[BlockEntry]{}, err
	}
	page := pagination.Paginate(rows, limit)

	views, err := s.authors.Load(ctx, uniqueIDs(len(page.Items), func(i int) string { return page.Items[i].BlockedID }))
	if err != nil {
		return pagination.Page[BlockEntry]{}, err
	}
	return pagination.Map(page, func(e models.BlockEdge) BlockEntry {
		return BlockEntry{
			BlockedID:   e.BlockedID,
			BlockedType: e.BlockedType,
			Author:      authorOf(views, e.BlockedID, e.BlockedType),
			CreatedAt:   e.CreatedAt,
		}
	}), nil
}
