package models

import "time"

// BlockEdge is a directional, binary block. The actor types are denormalized
// so type-partitioned lookups need no join.
type BlockEdge struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BlockerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair,priority:1;index:idx_block_blocker_type,priority:1" json:"blocker_id"`
	BlockerType Role      `gorm:"type:varchar(16);not null" json:"blocker_type"`
	BlockedID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair,priority:2;index" json:"blocked_id"`
	BlockedType Role      `gorm:"type:varchar(16);not null;index:idx_block_blocker_type,priority:2" json:"blocked_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (BlockEdge) TableName() string {
	return "block_edges"
}

// CursorKey returns the composite pagination key.
func (b BlockEdge) CursorKey() (time.Time, string) {
	return b.CreatedAt, b.ID
}

// Actor identifies one side of a block.
type Actor struct {
	ID   string
	Role Role
}
