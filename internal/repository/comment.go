package repository

import (
	"context"
	"errors"

	"nyx/internal/models"
	"nyx/internal/observability"
	"nyx/internal/pagination"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByItem(ctx context.Context, itemID string, cursor *pagination.Cursor, limit int) ([]models.Comment, error)
	Delete(ctx context.Context, id, authorID string) (bool, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": comment.ID, "item_id": comment.ItemID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByItem(ctx context.Context, itemID string, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Scopes(pagination.Scope("", cursor, limit)).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete soft-deletes a comment written by authorID.
func (r *commentRepository) Delete(ctx context.Context, id, authorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&models.Comment{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	}
	return result.RowsAffected > 0, nil
}
