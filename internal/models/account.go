// Package models contains data structures for the application's domain models.
package models

import "time"

// Role tells whether an account produces content (owner) or consumes it (viewer).
type Role string

const (
	// RoleOwner is an account that creates content and carries a visibility switch.
	RoleOwner Role = "owner"
	// RoleViewer is an account that follows, blocks and favorites owners.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleViewer
}

// Account maps an opaque account identifier to its role.
type Account struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Role      Role      `gorm:"type:varchar(16);not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// Viewer is the identity a visibility decision is made for.
// The zero value is the anonymous viewer.
type Viewer struct {
	ID string
}

// Anonymous returns the unauthenticated viewer.
func Anonymous() Viewer {
	return Viewer{}
}

// ViewerOf returns an authenticated viewer. An empty id yields the anonymous viewer.
func ViewerOf(id string) Viewer {
	return Viewer{ID: id}
}

// IsAnonymous reports whether no account is attached to the viewer.
func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}
