package models

import "time"

type NotificationKind string

const (
	NotificationKindMention      NotificationKind = "mention"
	NotificationKindTaskAssigned NotificationKind = "task_assigned"
	NotificationKindComment      NotificationKind = "comment"
)

// Notification is a per-member inbox row created as a side effect of comment,
// mention and assignment mutations.
type Notification struct {
	ID         uint64           `gorm:"primarykey" json:"id"`
	BusinessID uint64           `gorm:"not null;index" json:"business_id"`
	UserID     uint64           `gorm:"not null;index" json:"user_id"`
	ActorID    uint64           `gorm:"not null" json:"actor_id"`
	Kind       NotificationKind `gorm:"type:varchar(30);not null" json:"kind"`
	Message    string           `gorm:"type:varchar(255);not null" json:"message"`
	TaskID     *uint64          `json:"task_id"`
	Read       bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time        `json:"created_at"`

	// Relations
	Actor User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
