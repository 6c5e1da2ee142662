package models

import "time"

// Invite is a pending membership offer. Acceptance is a single atomic
// operation that creates the member profile and marks the invite used.
type Invite struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	BusinessID uint64     `gorm:"not null;index" json:"business_id"`
	Email      string     `gorm:"type:varchar(255);not null" json:"email"`
	Role       Role       `gorm:"type:varchar(20);not null" json:"role"`
	Token      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	InvitedBy  uint64     `gorm:"not null" json:"invited_by"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relations
	Business Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Inviter  User     `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
}
