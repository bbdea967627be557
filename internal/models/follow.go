package models

import "time"

// FollowStatus represents the state of a follow edge.
type FollowStatus string

const (
	// FollowStatusNone is reported when no edge exists. It is never stored.
	FollowStatusNone FollowStatus = "none"
	// FollowStatusPending indicates a request waiting for the owner's approval.
	FollowStatusPending FollowStatus = "pending"
	// FollowStatusApproved indicates an edge that grants access to the owner's content.
	FollowStatusApproved FollowStatus = "approved"
)

// Valid reports whether s can be stored on an edge.
func (s FollowStatus) Valid() bool {
	return s == FollowStatusPending || s == FollowStatusApproved
}

// FollowEdge is the directional relationship from a viewer to an owner.
// At most one edge exists per (owner, viewer) pair.
type FollowEdge struct {
	ID        string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair,priority:1;index:idx_follow_owner_status,priority:1" json:"owner_id"`
	ViewerID  string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair,priority:2;index:idx_follow_viewer_status,priority:1" json:"viewer_id"`
	Status    FollowStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_follow_owner_status,priority:2;index:idx_follow_viewer_status,priority:2" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FollowEdge) TableName() string {
	return "follow_edges"
}

// CursorKey returns the composite pagination key.
func (f FollowEdge) CursorKey() (time.Time, string) {
	return f.CreatedAt, f.ID
}

// FollowOutcomeKind distinguishes the two results of a follow attempt.
type FollowOutcomeKind int

const (
	// FollowCreated means a new edge was written.
	FollowCreated FollowOutcomeKind = iota + 1
	// FollowAlreadyExists means an edge was already present and was left untouched.
	FollowAlreadyExists
)

// FollowOutcome is the result of a follow attempt. Status is always the edge's
// current status, whether it was just written or already present.
type FollowOutcome struct {
	Kind   FollowOutcomeKind `json:"-"`
	Status FollowStatus      `json:"status"`
}

// Success reports whether the attempt created the edge.
func (o FollowOutcome) Success() bool {
	return o.Kind == FollowCreated
}

// AlreadyExists reports whether an edge was already in place.
func (o FollowOutcome) AlreadyExists() bool {
	return o.Kind == FollowAlreadyExists
}
