package models

import (
	"time"

	"gorm.io/gorm"
)

// Item is a post owned by a single owner.
type Item struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID    string     `gorm:"type:varchar(36);not null;index:idx_items_owner_created,priority:1" json:"owner_id"`
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'public'" json:"visibility"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time  `gorm:"index:idx_items_owner_created,priority:2;index:idx_items_created" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Tags []ItemTag `gorm:"foreignKey:ItemID" json:"tags,omitempty"`
}

// TableName specifies the table name for GORM
func (Item) TableName() string {
	return "items"
}

// CursorKey returns the composite pagination key.
func (i Item) CursorKey() (time.Time, string) {
	return i.CreatedAt, i.ID
}

// IsPublic reports whether the item itself is switched public.
func (i Item) IsPublic() bool {
	return i.Visibility == VisibilityPublic
}

// ItemTag is one ordered tag of an item.
type ItemTag struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	ItemID   string `gorm:"type:varchar(36);not null;index" json:"-"`
	Tag      string `gorm:"type:varchar(64);not null" json:"tag"`
	Position int    `gorm:"not null" json:"position"`
}

// TableName specifies the table name for GORM
func (ItemTag) TableName() string {
	return "item_tags"
}

// Comment is a reply attached to an item, written by any account.
type Comment struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ItemID    string         `gorm:"type:varchar(36);not null;index:idx_comments_item_created,priority:1" json:"item_id"`
	AuthorID  string         `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `gorm:"index:idx_comments_item_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// CursorKey returns the composite pagination key.
func (c Comment) CursorKey() (time.Time, string) {
	return c.CreatedAt, c.ID
}
