package models

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// CanManageMembers reports whether the role may see and manage the team
// and invite screens.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Profile is a user's membership in a business. A user belongs to exactly
// one business at a time.
type Profile struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	UserID     uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	BusinessID uint64    `gorm:"not null;index" json:"business_id"`
	Role       Role      `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt   time.Time `json:"joined_at"`

	// Relations
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Business Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
}
