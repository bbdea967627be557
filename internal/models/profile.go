package models

import "time"

// Visibility is the public/private switch carried by owners and items.
type Visibility string

const (
	// VisibilityPublic content is eligible for everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate content is reserved to approved followers.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// OwnerProfile is the account-level gate of an owner.
type OwnerProfile struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string     `gorm:"type:varchar(120);not null" json:"name"`
	AvatarURL  *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'public';index" json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (OwnerProfile) TableName() string {
	return "owner_profiles"
}

// IsPublic reports whether the owner is visible at account level.
func (p OwnerProfile) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}

// ViewerProfile holds the display fields of a viewer.
type ViewerProfile struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ViewerProfile) TableName() string {
	return "viewer_profiles"
}

// AuthorView is the display identity rendered next to content.
type AuthorView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Role      Role    `json:"role,omitempty"`
}

// UnknownAuthorName is shown when the profile behind an account cannot be found.
const UnknownAuthorName = "Unknown"

// PlaceholderAuthor returns the degraded view used for missing profiles.
func PlaceholderAuthor(id string, role Role) AuthorView {
	return AuthorView{ID: id, Name: UnknownAuthorName, Role: role}
}
