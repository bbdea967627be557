package models

import "time"

// FavoriteEdge marks an owner as saved by a viewer. Existence is the signal.
type FavoriteEdge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_pair,priority:1" json:"owner_id"`
	ViewerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_pair,priority:2;index" json:"viewer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (FavoriteEdge) TableName() string {
	return "favorite_edges"
}

// CursorKey returns the composite pagination key.
func (f FavoriteEdge) CursorKey() (time.Time, string) {
	return f.CreatedAt, f.ID
}
