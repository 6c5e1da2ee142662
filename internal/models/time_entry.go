package models

import "time"

// TimeEntry is a timer or manually entered duration record. At most one open
// entry (null EndTime) may exist per user per business; the partial unique
// index created in database.Migrate enforces it.
type TimeEntry struct {
	ID              uint64     `gorm:"primarykey" json:"id"`
	BusinessID      uint64     `gorm:"not null;index" json:"business_id"`
	UserID          uint64     `gorm:"not null;index" json:"user_id"`
	ContactID       *uint64    `json:"contact_id"`
	ItemID          *uint64    `json:"item_id"`
	Description     string     `gorm:"type:varchar(255)" json:"description"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	HourlyRate      *float64   `json:"hourly_rate"`
	BilledAmount    *float64   `json:"billed_amount"`
	Billable        bool       `gorm:"not null;default:true" json:"billable"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relations
	User    User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Contact *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Item    *Item    `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
